package server

import (
	"net/http"
	"time"

	"github.com/farellandr/homestay/internal/handlers"
	"github.com/farellandr/homestay/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	JWTSecret string
	// Redis is optional.
	Redis      *redis.Client
	UploadsDir string
	UploadsURL string
	// RateLimit caps requests per client on the account recovery routes.
	// Zero disables it.
	RateLimit       int64
	RateLimitWindow time.Duration
}

func NewRouter(h *handlers.Handler, cfg RouterConfig) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics(), middleware.RequestLogger(h.Log))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.UploadsDir != "" && cfg.UploadsURL != "" {
		r.Static(cfg.UploadsURL, cfg.UploadsDir)
	}

	setupRoutes(r, h, cfg)
	return r
}

func setupRoutes(r *gin.Engine, h *handlers.Handler, cfg RouterConfig) {
	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret)
	idempotent := middleware.Idempotency(cfg.Redis, h.Log)
	limited := middleware.RateLimit(cfg.Redis, cfg.RateLimit, cfg.RateLimitWindow, h.Log)

	public := r.Group("/v1")
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)
		public.POST("/verify-email", limited, h.VerifyEmail)
		public.POST("/forgot-password", limited, h.ForgotPassword)
		public.POST("/reset-password", limited, h.ResetPassword)

		public.GET("/bookings/verify", h.VerifyBookingLink)
		public.POST("/bookings/verify", h.VerifyBooking)

		homestayPublic := public.Group("/homestays")
		{
			homestayPublic.GET("", h.ListHomestays)
			homestayPublic.GET("/:id", h.GetHomestay)
			homestayPublic.GET("/:id/availability", h.CheckAvailability)
			homestayPublic.GET("/:id/reviews", h.ListReviews)
		}
	}

	protected := r.Group("/v1")
	protected.Use(auth)
	{
		protected.GET("/me", h.GetProfile)
		protected.PUT("/me", h.UpdateProfile)

		bookings := protected.Group("/bookings")
		{
			bookings.POST("", idempotent, h.CreateBooking)
			bookings.GET("", h.ListMyBookings)
			bookings.GET("/:id", h.GetBooking)
			bookings.POST("/:id/cancel", h.CancelBooking)
			bookings.GET("/:id/payment", h.GetPaymentInfo)
			bookings.POST("/:id/payment", idempotent, h.InitiatePayment)
			bookings.POST("/:id/payment/confirm", idempotent, h.ConfirmPayment)
		}

		protected.POST("/homestays/:id/reviews", h.CreateReview)
		protected.PUT("/reviews/:id", h.UpdateReview)
		protected.DELETE("/reviews/:id", h.DeleteReview)
		protected.POST("/reviews/:id/response", h.RespondToReview)
	}

	admin := r.Group("/v1/admin")
	admin.Use(auth, middleware.AdminOnly())
	{
		admin.GET("/homestays", h.ListHomestays)
		admin.GET("/homestays/mine", h.ListOwnHomestays)
		admin.POST("/homestays", h.CreateHomestay)
		admin.PUT("/homestays/:id", h.UpdateHomestay)
		admin.DELETE("/homestays/:id", h.DeleteHomestay)

		admin.GET("/bookings", h.ListBookings)
		admin.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
		admin.POST("/bookings/:id/payment/verify", idempotent, h.VerifyPayment)
		admin.POST("/bookings/:id/payment/refund", idempotent, h.RefundPayment)

		admin.GET("/payments/pending", h.ListPendingPayments)
	}
}

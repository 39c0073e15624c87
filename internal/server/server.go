package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farellandr/homestay/config"
	"github.com/farellandr/homestay/internal/handlers"
	"github.com/farellandr/homestay/internal/logger"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/notify"
	"github.com/farellandr/homestay/internal/qr"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/farellandr/homestay/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := config.SeedAdmin(db, cfg.Admin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	notifier, closeNotifier := newNotifier(cfg, log)
	defer closeNotifier()

	redisClient := newRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := NewHandler(cfg, db, notifier, log)
	r := NewRouter(h, RouterConfig{
		JWTSecret:       cfg.JWT.Secret,
		Redis:           redisClient,
		UploadsDir:      cfg.QR.Dir,
		UploadsURL:      cfg.QR.PublicPath,
		RateLimit:       cfg.Auth.RateLimit,
		RateLimitWindow: cfg.Auth.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exiting")
	return nil
}

// NewHandler wires repositories and services over db.
func NewHandler(cfg *config.Config, db *gorm.DB, notifier notify.Notifier, log *logrus.Logger) *handlers.Handler {
	users := repository.NewUserRepository(db)
	homestays := repository.NewHomestayRepository(db)
	bookings := repository.NewBookingRepository(db)
	reviews := repository.NewReviewRepository(db)

	bookingService := services.NewBookingService(
		repository.NewTxManager(db), bookings, users, homestays, notifier, log,
		services.BookingConfig{
			CredentialKind: models.CredentialKind(cfg.Booking.CredentialKind),
			OTPTTL:         cfg.Booking.OTPTTL,
			TokenTTL:       cfg.Booking.TokenTTL,
			MaxNights:      cfg.Booking.MaxNights,
			MaxTotalPrice:  cfg.Booking.MaxTotalPrice,
		},
	)
	encoder := qr.NewFileEncoder(qr.Config{
		Dir:        cfg.QR.Dir,
		PublicPath: cfg.QR.PublicPath,
		Size:       cfg.QR.Size,
	})

	return &handlers.Handler{
		Auth: services.NewAuthService(users, notifier, log, services.AuthConfig{
			Secret:        cfg.JWT.Secret,
			TokenTTL:      cfg.JWT.TTL,
			EmailOTPTTL:   cfg.Auth.EmailOTPTTL,
			ResetTokenTTL: cfg.Auth.ResetTokenTTL,
			ResetCooldown: cfg.Auth.ResetCooldown,
		}),
		Bookings:     bookingService,
		Verification: services.NewVerificationHandler(bookingService),
		Payments: services.NewPaymentService(bookings, users, encoder, notifier, log, services.PaymentConfig{
			BankName:        cfg.Payment.BankName,
			AccountNumber:   cfg.Payment.AccountNumber,
			AccountName:     cfg.Payment.AccountName,
			ReferencePrefix: cfg.Payment.ReferencePrefix,
			ReferenceSecret: cfg.Payment.ReferenceSecret,
			AdminEmail:      cfg.Admin.Email,
		}),
		Homestays: services.NewHomestayService(homestays, services.NewAvailabilityChecker(bookings), log),
		Reviews:   services.NewReviewService(reviews, homestays, log),
		Log:       log,
	}
}

// newNotifier publishes to Kafka when brokers are configured and logs
// notifications otherwise.
func newNotifier(cfg *config.Config, log *logrus.Logger) (notify.Notifier, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("KAFKA_BROKERS not set, notifications are logged only")
		return notify.NewLogNotifier(log), func() {}
	}
	k := notify.NewKafkaNotifier(notify.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
	return k, func() {
		if err := k.Close(); err != nil {
			log.WithError(err).Warn("closing kafka writer")
		}
	}
}

// newRedis returns nil when Redis is not configured or unreachable; the
// idempotency middleware then passes requests through.
func newRedis(ctx context.Context, cfg *config.Config, log *logrus.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).Warn("redis unavailable, idempotency keys disabled")
		_ = client.Close()
		return nil
	}
	return client
}

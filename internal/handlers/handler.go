package handlers

import (
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/middleware"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Auth         *services.AuthService
	Bookings     *services.BookingService
	Verification *services.VerificationHandler
	Payments     *services.PaymentService
	Homestays    *services.HomestayService
	Reviews      *services.ReviewService
	Log          *logrus.Logger
}

var (
	registerOnce sync.Once
	otpRule      = regexp.MustCompile(`^[0-9]{6}$`)
)

// RegisterValidators adds the custom binding rules used by request structs:
// "otp" (six digits) and "date" (YYYY-MM-DD).
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
			return otpRule.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := time.Parse(helpers.DateLayout, fl.Field().String())
			return err == nil
		})
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	helpers.RespondWithServiceError(c, h.Log, err)
}

func actor(c *gin.Context) (services.Actor, bool) {
	id, role, ok := middleware.CurrentUser(c)
	if !ok {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return services.Actor{}, false
	}
	return services.Actor{ID: id, Role: role}, true
}

func idParam(c *gin.Context, name, resource string) (uuid.UUID, bool) {
	id, err := helpers.ParseUUIDParam(c, name)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid "+resource+" ID.")
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return false
	}
	return true
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.RoleKey) == models.RoleAdmin
}

package services

import (
	"context"
	"regexp"

	"github.com/farellandr/homestay/internal/models"
	"github.com/google/uuid"
)

var (
	otpPattern   = regexp.MustCompile(`^[0-9]{6}$`)
	tokenPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

type bookingVerifier interface {
	VerifyBooking(ctx context.Context, token string) (*models.Booking, error)
	VerifyBookingOTP(ctx context.Context, bookingID uuid.UUID, otp string) (*models.Booking, error)
}

// VerificationRequest carries either a link token or a booking id with its
// OTP. Expiry is enforced per credential kind by the lifecycle.
type VerificationRequest struct {
	Token     string
	BookingID uuid.UUID
	OTP       string
}

type VerificationHandler struct {
	bookings bookingVerifier
}

func NewVerificationHandler(bookings bookingVerifier) *VerificationHandler {
	return &VerificationHandler{bookings: bookings}
}

// Verify routes the request to the token or OTP path. Malformed credentials
// fail the same way as wrong ones.
func (h *VerificationHandler) Verify(ctx context.Context, req VerificationRequest) (*models.Booking, error) {
	switch {
	case req.Token != "":
		if !tokenPattern.MatchString(req.Token) {
			return nil, invalidOrExpired()
		}
		return h.bookings.VerifyBooking(ctx, req.Token)
	case req.OTP != "":
		if req.BookingID == uuid.Nil {
			return nil, invalidInput("bookingId", "booking id is required with an otp")
		}
		if !otpPattern.MatchString(req.OTP) {
			return nil, invalidOrExpired()
		}
		return h.bookings.VerifyBookingOTP(ctx, req.BookingID, req.OTP)
	}
	return nil, invalidInput("credential", "a token or an otp is required")
}

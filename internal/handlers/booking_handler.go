package handlers

import (
	"net/http"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	HomestayID   uuid.UUID `json:"homestay_id" binding:"required"`
	CheckInDate  string    `json:"check_in_date" binding:"required,date"`
	CheckOutDate string    `json:"check_out_date" binding:"required,date"`
	GuestCount   int       `json:"guest_count" binding:"required,min=1"`
	Notes        string    `json:"notes" binding:"max=1000"`
}

// VerifyBookingRequest carries a link token, or a booking id with its OTP.
type VerifyBookingRequest struct {
	Token     string    `json:"token" binding:"omitempty,len=64,hexadecimal"`
	BookingID uuid.UUID `json:"booking_id"`
	OTP       string    `json:"otp" binding:"omitempty,otp"`
}

func (h *Handler) CreateBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if !bindJSON(c, &req) {
		return
	}

	checkIn, _ := helpers.ParseDate(req.CheckInDate)
	checkOut, _ := helpers.ParseDate(req.CheckOutDate)
	booking, err := h.Bookings.CreateBooking(c.Request.Context(), a.ID, services.CreateBookingParams{
		HomestayID: req.HomestayID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		GuestCount: req.GuestCount,
		Notes:      req.Notes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking created. Check your email to verify it.",
		"booking": booking,
	})
}

func (h *Handler) VerifyBooking(c *gin.Context) {
	var req VerifyBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	h.verify(c, services.VerificationRequest{Token: req.Token, BookingID: req.BookingID, OTP: req.OTP})
}

// VerifyBookingLink serves the link sent by email: GET /bookings/verify?token=...
func (h *Handler) VerifyBookingLink(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Verification token is required.")
		return
	}
	h.verify(c, services.VerificationRequest{Token: token})
}

func (h *Handler) verify(c *gin.Context, req services.VerificationRequest) {
	booking, err := h.Verification.Verify(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking confirmed.",
		"booking": booking,
	})
}

func (h *Handler) GetBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.Bookings.GetBooking(c.Request.Context(), a, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	page, limit := helpers.ParsePagination(c)

	result, err := h.Bookings.ListUserBookings(c.Request.Context(), a.ID, services.BookingQuery{
		Status: models.BookingStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.Bookings.CancelBooking(c.Request.Context(), a, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled.",
		"booking": booking,
	})
}

package handlers

import (
	"net/http"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=1000"`
}

// ListBookings supports ?status=&payment_status=&homestay_id=&page=&limit=
func (h *Handler) ListBookings(c *gin.Context) {
	page, limit := helpers.ParsePagination(c)
	q := services.BookingQuery{
		Status:        models.BookingStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
		Page:          page,
		Limit:         limit,
	}
	if raw := c.Query("homestay_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid homestay ID.")
			return
		}
		q.HomestayID = &id
	}

	result, err := h.Bookings.ListBookings(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	var req UpdateBookingStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.Bookings.UpdateBookingStatus(c.Request.Context(), id, models.BookingStatus(req.Status), req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

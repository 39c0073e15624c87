package handlers

import (
	"net/http"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/services"
	"github.com/gin-gonic/gin"
)

type ConfirmPaymentRequest struct {
	PaymentMethod    string `json:"payment_method" binding:"omitempty,max=50"`
	PaymentReference string `json:"payment_reference" binding:"omitempty,max=255"`
}

type VerifyPaymentRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Notes    string `json:"notes" binding:"max=1000"`
}

type RefundPaymentRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

func (h *Handler) InitiatePayment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.Payments.InitiatePayment(c.Request.Context(), a, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	info, err := h.Payments.GetPaymentInfo(c.Request.Context(), a, booking.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Transfer the amount using the reference below, then confirm your payment.",
		"payment": info,
	})
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	booking, err := h.Payments.ConfirmUserPayment(c.Request.Context(), a.ID, id, services.ConfirmPaymentParams{
		Method:    req.PaymentMethod,
		Reference: req.PaymentReference,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmation received. It will be reviewed shortly.",
		"booking": booking,
	})
}

func (h *Handler) GetPaymentInfo(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}

	info, err := h.Payments.GetPaymentInfo(c.Request.Context(), a, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	var req VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := h.Payments.VerifyPayment(c.Request.Context(), id, a.ID, *req.Approved, req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) RefundPayment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id", "booking")
	if !ok {
		return
	}
	var req RefundPaymentRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	booking, err := h.Payments.RefundPayment(c.Request.Context(), id, a.ID, req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) ListPendingPayments(c *gin.Context) {
	page, limit := helpers.ParsePagination(c)
	result, err := h.Payments.ListPendingPayments(c.Request.Context(), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

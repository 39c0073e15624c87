// Package services implements the booking core: availability checks, the
// booking lifecycle, credential verification and the manual payment
// workflow, plus the homestay and review operations around it.
package services

import (
	"context"
	"time"

	"github.com/farellandr/homestay/internal/metrics"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/notify"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const notifyTimeout = 5 * time.Second

type UserDirectory interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type HomestayCatalog interface {
	FindHomestay(ctx context.Context, id uuid.UUID) (*models.Homestay, error)
}

// QREncoder turns a payment payload into an opaque reference to the
// rendered code. Remove discards a code that was never attached to a booking.
type QREncoder interface {
	Encode(ctx context.Context, payload string) (string, error)
	Remove(ctx context.Context, ref string) error
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Actor) canAccess(b *models.Booking) bool {
	return a.IsAdmin() || a.ID == b.UserID
}

type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
}

func newPage[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	var pages int64
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}
}

// dispatch sends n and only logs on failure: a committed transition stands
// regardless of notification delivery.
func dispatch(ctx context.Context, notifier notify.Notifier, log *logrus.Logger, n notify.Notification) {
	if notifier == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}
	if err := notifier.Send(sendCtx, n); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(n.Kind)).Inc()
		log.WithError(err).WithFields(logrus.Fields{
			"kind":      n.Kind,
			"recipient": n.Recipient,
		}).Warn("notification dispatch failed")
	}
}

// dateOnly truncates t to its UTC calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bookingSummary(b *models.Booking, h *models.Homestay) map[string]any {
	summary := map[string]any{
		"booking_id":     b.ID.String(),
		"check_in_date":  b.CheckInDate.Format("2006-01-02"),
		"check_out_date": b.CheckOutDate.Format("2006-01-02"),
		"guest_count":    b.GuestCount,
		"total_price":    b.TotalPrice,
	}
	if h != nil {
		summary["homestay_name"] = h.Name
		summary["homestay_address"] = h.Address
	}
	return summary
}

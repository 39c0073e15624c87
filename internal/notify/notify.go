// Package notify carries booking and payment notifications out of the core.
// Delivery (email rendering and transport) happens in downstream consumers.
package notify

import (
	"context"
	"time"
)

type Kind string

const (
	KindBookingCreated         Kind = "booking_created"
	KindBookingConfirmed       Kind = "booking_confirmed"
	KindPaymentInstructions    Kind = "payment_instructions"
	KindPaymentWaitingApproval Kind = "payment_waiting_approval"
	KindPaymentResult          Kind = "payment_result"
	KindEmailVerification      Kind = "user_email_verification"
	KindEmailVerified          Kind = "user_email_verified"
	KindPasswordReset          Kind = "password_reset"
	KindPasswordChanged        Kind = "password_reset_completed"
)

type Notification struct {
	Kind       Kind           `json:"kind"`
	Recipient  string         `json:"recipient"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending        BookingStatus = "pending"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingPaymentPending BookingStatus = "payment_pending"
	BookingCancelled      BookingStatus = "cancelled"
	BookingRented         BookingStatus = "rented"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingPaymentPending, BookingCancelled, BookingRented:
		return true
	}
	return false
}

// ActiveHoldStatuses lists the statuses that reserve a homestay's calendar.
func ActiveHoldStatuses() []BookingStatus {
	return []BookingStatus{BookingPending, BookingConfirmed, BookingPaymentPending, BookingRented}
}

type PaymentStatus string

const (
	PaymentUnpaid              PaymentStatus = "unpaid"
	PaymentPending             PaymentStatus = "pending"
	PaymentWaitingApproval     PaymentStatus = "waiting_approval"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentPaid                PaymentStatus = "paid"
	PaymentRefunded            PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPending, PaymentWaitingApproval, PaymentPendingVerification, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

type CredentialKind string

const (
	CredentialToken CredentialKind = "token"
	CredentialOTP   CredentialKind = "otp"
)

// Credential is the single verification secret a pending booking carries.
type Credential struct {
	Kind      CredentialKind
	Value     string
	ExpiresAt time.Time
}

func (c Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

type Booking struct {
	ID           uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User         `json:"user,omitempty"`
	HomestayID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"homestay_id"`
	Homestay     *Homestay     `json:"homestay,omitempty"`
	CheckInDate  time.Time     `gorm:"type:date;not null" json:"check_in_date"`
	CheckOutDate time.Time     `gorm:"type:date;not null" json:"check_out_date"`
	GuestCount   int           `gorm:"not null" json:"guest_count"`
	TotalPrice   int64         `gorm:"not null" json:"total_price"`
	Status       BookingStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Notes        string        `gorm:"type:text" json:"notes,omitempty"`

	// All three are NULL once the credential is consumed.
	CredentialKind      *CredentialKind `gorm:"size:10" json:"-"`
	CredentialValue     *string         `gorm:"size:64;index" json:"-"`
	CredentialExpiresAt *time.Time      `json:"-"`

	PaymentStatus      PaymentStatus `gorm:"size:30;not null;default:'unpaid';index" json:"payment_status"`
	PaymentMethod      *string       `gorm:"size:255" json:"payment_method,omitempty"`
	PaymentReference   *string       `gorm:"size:255" json:"payment_reference,omitempty"`
	PaymentQRCode      *string       `gorm:"column:payment_qr_code;size:255" json:"payment_qr_code,omitempty"`
	PaymentDate        *time.Time    `json:"payment_date,omitempty"`
	PaymentVerifiedBy  *uuid.UUID    `gorm:"type:uuid" json:"payment_verified_by,omitempty"`
	PaymentVerifiedAt  *time.Time    `json:"payment_verified_at,omitempty"`
	PaymentConfirmedAt *time.Time    `json:"payment_confirmed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (booking *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return
}

// Credential returns nil when no credential is outstanding.
func (booking *Booking) Credential() *Credential {
	if booking.CredentialKind == nil || booking.CredentialValue == nil || booking.CredentialExpiresAt == nil {
		return nil
	}
	return &Credential{
		Kind:      *booking.CredentialKind,
		Value:     *booking.CredentialValue,
		ExpiresAt: *booking.CredentialExpiresAt,
	}
}

func (booking *Booking) SetCredential(c *Credential) {
	if c == nil {
		booking.CredentialKind = nil
		booking.CredentialValue = nil
		booking.CredentialExpiresAt = nil
		return
	}
	kind, value, expiresAt := c.Kind, c.Value, c.ExpiresAt
	booking.CredentialKind = &kind
	booking.CredentialValue = &value
	booking.CredentialExpiresAt = &expiresAt
}

func (booking *Booking) Nights() int {
	return int(booking.CheckOutDate.Sub(booking.CheckInDate).Hours() / 24)
}

// Holds reports whether the booking reserves the homestay's calendar.
func (booking *Booking) Holds() bool {
	for _, s := range ActiveHoldStatuses() {
		if booking.Status == s {
			return true
		}
	}
	return false
}

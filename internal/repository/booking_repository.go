package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/farellandr/homestay/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Guard is the expected current state for a conditional update. Empty
// slices do not constrain.
type Guard struct {
	Statuses        []models.BookingStatus
	PaymentStatuses []models.PaymentStatus
}

type BookingFilter struct {
	UserID          *uuid.UUID
	HomestayID      *uuid.UUID
	Status          models.BookingStatus
	PaymentStatuses []models.PaymentStatus
	Page            int
	Limit           int
}

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if err := conn(ctx, r.db).Create(booking).Error; err != nil {
		return fmt.Errorf("insert booking: %w", translate(err))
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := conn(ctx, r.db).Preload("Homestay").First(&booking, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

// CountOverlapping counts active-hold bookings of the homestay whose
// [check_in, check_out) range intersects [checkIn, checkOut).
func (r *BookingRepository) CountOverlapping(ctx context.Context, homestayID uuid.UUID, checkIn, checkOut time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Booking{}).
		Where("homestay_id = ?", homestayID).
		Where("status IN ?", models.ActiveHoldStatuses()).
		Where("check_in_date < ? AND ? < check_out_date", checkOut, checkIn).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return count, nil
}

// FindPendingByCredential looks up a pending booking holding the credential.
// bookingID narrows the lookup when the credential alone is not unique (OTP).
func (r *BookingRepository) FindPendingByCredential(ctx context.Context, kind models.CredentialKind, value string, bookingID *uuid.UUID) (*models.Booking, error) {
	q := conn(ctx, r.db).
		Where("credential_kind = ? AND credential_value = ?", kind, value).
		Where("status = ?", models.BookingPending)
	if bookingID != nil {
		q = q.Where("id = ?", *bookingID)
	}

	var booking models.Booking
	if err := q.First(&booking).Error; err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

// ConsumeCredential confirms the booking and clears its credential in one
// conditional update. It reports false when the credential no longer
// matches, has expired, or the booking left pending.
func (r *BookingRepository) ConsumeCredential(ctx context.Context, id uuid.UUID, kind models.CredentialKind, value string, now time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, models.BookingPending).
		Where("credential_kind = ? AND credential_value = ?", kind, value).
		Where("credential_expires_at > ?", now).
		Updates(map[string]interface{}{
			"status":                models.BookingConfirmed,
			"credential_kind":       nil,
			"credential_value":      nil,
			"credential_expires_at": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume credential: %w", translate(res.Error))
	}
	return res.RowsAffected == 1, nil
}

// CompareAndSet applies updates only while the booking still matches guard.
// It reports whether a row changed.
func (r *BookingRepository) CompareAndSet(ctx context.Context, id uuid.UUID, guard Guard, updates map[string]interface{}) (bool, error) {
	q := conn(ctx, r.db).Model(&models.Booking{}).Where("id = ?", id)
	if len(guard.Statuses) > 0 {
		q = q.Where("status IN ?", guard.Statuses)
	}
	if len(guard.PaymentStatuses) > 0 {
		q = q.Where("payment_status IN ?", guard.PaymentStatuses)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("update booking: %w", translate(res.Error))
	}
	return res.RowsAffected == 1, nil
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]models.Booking, int64, error) {
	q := conn(ctx, r.db).Model(&models.Booking{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.HomestayID != nil {
		q = q.Where("homestay_id = ?", *f.HomestayID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if len(f.PaymentStatuses) > 0 {
		q = q.Where("payment_status IN ?", f.PaymentStatuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	var bookings []models.Booking
	err := q.Scopes(paginate(f.Page, f.Limit)).
		Preload("Homestay").
		Preload("User").
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, total, nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OverlapCounter interface {
	CountOverlapping(ctx context.Context, homestayID uuid.UUID, checkIn, checkOut time.Time) (int64, error)
}

// AvailabilityChecker answers whether a homestay is free for [checkIn, checkOut).
// Run it inside the booking transaction when the answer guards an insert.
type AvailabilityChecker struct {
	bookings OverlapCounter
}

func NewAvailabilityChecker(bookings OverlapCounter) *AvailabilityChecker {
	return &AvailabilityChecker{bookings: bookings}
}

func (a *AvailabilityChecker) IsAvailable(ctx context.Context, homestayID uuid.UUID, checkIn, checkOut time.Time) (bool, error) {
	checkIn, checkOut = dateOnly(checkIn), dateOnly(checkOut)
	if !checkOut.After(checkIn) {
		return false, invalidInput("checkOutDate", "check-out date must be after check-in date")
	}

	n, err := a.bookings.CountOverlapping(ctx, homestayID, checkIn, checkOut)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return n == 0, nil
}

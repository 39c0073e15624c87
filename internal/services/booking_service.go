package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/farellandr/homestay/internal/metrics"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/notify"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingStore interface {
	OverlapCounter
	Create(ctx context.Context, booking *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindPendingByCredential(ctx context.Context, kind models.CredentialKind, value string, bookingID *uuid.UUID) (*models.Booking, error)
	ConsumeCredential(ctx context.Context, id uuid.UUID, kind models.CredentialKind, value string, now time.Time) (bool, error)
	CompareAndSet(ctx context.Context, id uuid.UUID, guard repository.Guard, updates map[string]interface{}) (bool, error)
	List(ctx context.Context, f repository.BookingFilter) ([]models.Booking, int64, error)
}

// HomestayLocker is the catalog plus a row lock taken inside a transaction.
type HomestayLocker interface {
	HomestayCatalog
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Homestay, error)
}

type BookingConfig struct {
	CredentialKind models.CredentialKind
	OTPTTL         time.Duration
	TokenTTL       time.Duration
	MaxNights      int
	MaxTotalPrice  int64
}

type CreateBookingParams struct {
	HomestayID uuid.UUID
	CheckIn    time.Time
	CheckOut   time.Time
	GuestCount int
	Notes      string
}

type BookingQuery struct {
	HomestayID    *uuid.UUID
	Status        models.BookingStatus
	PaymentStatus models.PaymentStatus
	Page          int
	Limit         int
}

type BookingService struct {
	tx           repository.Transactor
	bookings     BookingStore
	users        UserDirectory
	homestays    HomestayLocker
	availability *AvailabilityChecker
	notifier     notify.Notifier
	log          *logrus.Logger
	cfg          BookingConfig
	now          func() time.Time
}

func NewBookingService(
	tx repository.Transactor,
	bookings BookingStore,
	users UserDirectory,
	homestays HomestayLocker,
	notifier notify.Notifier,
	log *logrus.Logger,
	cfg BookingConfig,
) *BookingService {
	if cfg.CredentialKind == "" {
		cfg.CredentialKind = models.CredentialOTP
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 15 * time.Minute
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.MaxNights <= 0 {
		cfg.MaxNights = 365
	}
	if cfg.MaxTotalPrice <= 0 {
		cfg.MaxTotalPrice = math.MaxInt64
	}
	return &BookingService{
		tx:           tx,
		bookings:     bookings,
		users:        users,
		homestays:    homestays,
		availability: NewAvailabilityChecker(bookings),
		notifier:     notifier,
		log:          log,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock used for "today" and credential expiry.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, params CreateBookingParams) (*models.Booking, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}

	homestay, err := s.homestays.FindHomestay(ctx, params.HomestayID)
	if err != nil {
		return nil, lookupErr(err, "homestay")
	}
	if !homestay.IsActive() {
		return nil, notFound("homestay")
	}

	now := s.now()
	checkIn, checkOut := dateOnly(params.CheckIn), dateOnly(params.CheckOut)
	if checkIn.Before(dateOnly(now)) {
		return nil, invalidInput("checkInDate", "check-in date cannot be in the past")
	}
	if !checkOut.After(checkIn) {
		return nil, invalidInput("checkOutDate", "check-out date must be after check-in date")
	}
	nights := int(checkOut.Sub(checkIn).Hours() / 24)
	if nights > s.cfg.MaxNights {
		return nil, invalidInput("dateRange", fmt.Sprintf("a booking cannot exceed %d nights", s.cfg.MaxNights))
	}
	if params.GuestCount < 1 || params.GuestCount > homestay.Capacity {
		return nil, invalidInput("guestCount", fmt.Sprintf("guest count must be between 1 and %d", homestay.Capacity))
	}

	total, ok := totalPrice(homestay.Price, nights, s.cfg.MaxTotalPrice)
	if !ok {
		return nil, invalidInput("totalPrice", "total price exceeds the allowed maximum")
	}

	credential, err := newCredential(s.cfg, now)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:        user.ID,
		HomestayID:    homestay.ID,
		CheckInDate:   checkIn,
		CheckOutDate:  checkOut,
		GuestCount:    params.GuestCount,
		TotalPrice:    total,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
		Notes:         strings.TrimSpace(params.Notes),
	}
	booking.SetCredential(credential)

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		locked, err := s.homestays.FindForUpdate(txCtx, homestay.ID)
		if err != nil {
			return lookupErr(err, "homestay")
		}
		if !locked.IsActive() {
			return notFound("homestay")
		}

		free, err := s.availability.IsAvailable(txCtx, homestay.ID, checkIn, checkOut)
		if err != nil {
			return err
		}
		if !free {
			return conflict("unavailable", "homestay is not available for the selected dates")
		}

		if err := s.bookings.Create(txCtx, booking); err != nil {
			if errors.Is(err, repository.ErrOverlap) {
				return conflict("unavailable", "homestay is not available for the selected dates")
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.BookingConflicts.Inc()
		}
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	s.log.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"homestay_id": homestay.ID,
		"nights":      nights,
	}).Info("booking created")

	payload := bookingSummary(booking, homestay)
	payload["credential_kind"] = credential.Kind
	payload["credential"] = credential.Value
	payload["credential_expires_at"] = credential.ExpiresAt
	dispatch(ctx, s.notifier, s.log, notify.Notification{
		Kind:       notify.KindBookingCreated,
		Recipient:  user.Email,
		Payload:    payload,
		OccurredAt: now,
	})

	booking.Homestay = homestay
	return booking, nil
}

// VerifyBooking confirms the pending booking holding the link token.
func (s *BookingService) VerifyBooking(ctx context.Context, token string) (*models.Booking, error) {
	if token == "" {
		return nil, invalidOrExpired()
	}
	booking, err := s.bookings.FindPendingByCredential(ctx, models.CredentialToken, token, nil)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalidOrExpired()
		}
		return nil, err
	}
	return s.confirm(ctx, booking.ID, models.CredentialToken, token)
}

// VerifyBookingOTP confirms the booking when otp is its outstanding code.
func (s *BookingService) VerifyBookingOTP(ctx context.Context, bookingID uuid.UUID, otp string) (*models.Booking, error) {
	if otp == "" {
		return nil, invalidOrExpired()
	}
	return s.confirm(ctx, bookingID, models.CredentialOTP, otp)
}

func (s *BookingService) confirm(ctx context.Context, id uuid.UUID, kind models.CredentialKind, value string) (*models.Booking, error) {
	now := s.now()
	ok, err := s.bookings.ConsumeCredential(ctx, id, kind, value, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidOrExpired()
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload booking: %w", err)
	}

	metrics.BookingsVerified.WithLabelValues(string(kind)).Inc()
	s.log.WithFields(logrus.Fields{"booking_id": id, "credential": kind}).Info("booking confirmed")

	if user, err := s.users.FindUser(ctx, booking.UserID); err == nil {
		dispatch(ctx, s.notifier, s.log, notify.Notification{
			Kind:       notify.KindBookingConfirmed,
			Recipient:  user.Email,
			Payload:    bookingSummary(booking, booking.Homestay),
			OccurredAt: now,
		})
	} else {
		s.log.WithError(err).WithField("booking_id", id).Warn("booking owner lookup failed")
	}
	return booking, nil
}

// UpdateBookingStatus is the admin override of the booking status.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error) {
	if !status.Valid() {
		return nil, invalidInput("status", fmt.Sprintf("unknown booking status %q", status))
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if booking.Status == models.BookingCancelled {
		return nil, invalidTransition("cancelled bookings cannot change status")
	}
	if status == models.BookingConfirmed && booking.PaymentStatus != models.PaymentPaid {
		return nil, invalidTransition("booking can only be confirmed after payment")
	}

	updates := map[string]interface{}{"status": status}
	if notes != "" {
		updates["notes"] = appendNote(booking.Notes, notes)
	}
	if status == models.BookingCancelled {
		clearCredential(updates)
	}

	ok, err := s.bookings.CompareAndSet(ctx, bookingID, repository.Guard{
		Statuses: []models.BookingStatus{booking.Status},
	}, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidTransition("booking was modified concurrently")
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"from":       booking.Status,
		"to":         status,
	}).Info("booking status updated")
	return s.bookings.FindByID(ctx, bookingID)
}

// CancelBooking cancels a booking that has not entered payment.
func (s *BookingService) CancelBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if !actor.canAccess(booking) {
		return nil, forbidden("you cannot cancel this booking")
	}

	cancellable := []models.BookingStatus{models.BookingPending, models.BookingConfirmed}
	if booking.Status != models.BookingPending && booking.Status != models.BookingConfirmed {
		return nil, invalidTransition(fmt.Sprintf("a %s booking cannot be cancelled", booking.Status))
	}

	updates := map[string]interface{}{"status": models.BookingCancelled}
	clearCredential(updates)
	ok, err := s.bookings.CompareAndSet(ctx, bookingID, repository.Guard{Statuses: cancellable}, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidTransition("booking was modified concurrently")
	}

	s.log.WithField("booking_id", bookingID).Info("booking cancelled")
	return s.bookings.FindByID(ctx, bookingID)
}

func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if !actor.canAccess(booking) {
		return nil, forbidden("you cannot view this booking")
	}
	return booking, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID uuid.UUID, q BookingQuery) (Page[models.Booking], error) {
	return s.list(ctx, &userID, q)
}

func (s *BookingService) ListBookings(ctx context.Context, q BookingQuery) (Page[models.Booking], error) {
	return s.list(ctx, nil, q)
}

func (s *BookingService) list(ctx context.Context, userID *uuid.UUID, q BookingQuery) (Page[models.Booking], error) {
	if q.Status != "" && !q.Status.Valid() {
		return Page[models.Booking]{}, invalidInput("status", fmt.Sprintf("unknown booking status %q", q.Status))
	}
	filter := repository.BookingFilter{
		UserID:     userID,
		HomestayID: q.HomestayID,
		Status:     q.Status,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if q.PaymentStatus != "" {
		if !q.PaymentStatus.Valid() {
			return Page[models.Booking]{}, invalidInput("paymentStatus", fmt.Sprintf("unknown payment status %q", q.PaymentStatus))
		}
		filter.PaymentStatuses = []models.PaymentStatus{q.PaymentStatus}
	}

	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return Page[models.Booking]{}, err
	}
	return newPage(bookings, total, q.Page, q.Limit), nil
}

// totalPrice multiplies without wrapping. It reports false when the result
// overflows or exceeds limit.
func totalPrice(nightly int64, nights int, limit int64) (int64, bool) {
	if nightly < 0 || nights < 0 {
		return 0, false
	}
	if nightly != 0 && int64(nights) > math.MaxInt64/nightly {
		return 0, false
	}
	total := nightly * int64(nights)
	if total > limit {
		return 0, false
	}
	return total, true
}

func clearCredential(updates map[string]interface{}) {
	updates["credential_kind"] = nil
	updates["credential_value"] = nil
	updates["credential_expires_at"] = nil
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

// lookupErr turns a repository miss into NotFound(resource).
func lookupErr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(resource)
	}
	return fmt.Errorf("find %s: %w", resource, err)
}

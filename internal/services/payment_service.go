package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/metrics"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/notify"
	"github.com/farellandr/homestay/internal/qr"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultPaymentMethod = "bank_transfer"

type PaymentStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	CompareAndSet(ctx context.Context, id uuid.UUID, guard repository.Guard, updates map[string]interface{}) (bool, error)
	List(ctx context.Context, f repository.BookingFilter) ([]models.Booking, int64, error)
}

// PaymentConfig holds the receiving bank account and the address that is
// told about payments awaiting approval.
type PaymentConfig struct {
	BankName        string
	AccountNumber   string
	AccountName     string
	ReferencePrefix string
	ReferenceSecret string
	AdminEmail      string
}

type ConfirmPaymentParams struct {
	Method    string
	Reference string
}

type PaymentInfo struct {
	BookingID     uuid.UUID            `json:"booking_id"`
	Amount        int64                `json:"amount"`
	Status        models.BookingStatus `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Method        *string              `json:"payment_method,omitempty"`
	Reference     *string              `json:"payment_reference,omitempty"`
	QRCode        *string              `json:"payment_qr_code,omitempty"`
	BankName      string               `json:"bank_name"`
	AccountNumber string               `json:"account_number"`
	AccountName   string               `json:"account_name"`
	ConfirmedAt   *time.Time           `json:"payment_confirmed_at,omitempty"`
	VerifiedAt    *time.Time           `json:"payment_verified_at,omitempty"`
	PaidAt        *time.Time           `json:"payment_date,omitempty"`
}

type PaymentService struct {
	bookings PaymentStore
	users    UserDirectory
	qr       QREncoder
	notifier notify.Notifier
	log      *logrus.Logger
	cfg      PaymentConfig
	now      func() time.Time
}

func NewPaymentService(
	bookings PaymentStore,
	users UserDirectory,
	encoder QREncoder,
	notifier notify.Notifier,
	log *logrus.Logger,
	cfg PaymentConfig,
) *PaymentService {
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = "HS"
	}
	return &PaymentService{
		bookings: bookings,
		users:    users,
		qr:       encoder,
		notifier: notifier,
		log:      log,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// InitiatePayment issues the bank-transfer reference and QR code for a
// confirmed booking and moves it into payment.
func (s *PaymentService) InitiatePayment(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if !actor.canAccess(booking) {
		return nil, forbidden("you cannot pay for this booking")
	}
	if err := initiateAllowed(booking); err != nil {
		return nil, err
	}

	reference := helpers.PaymentReference(s.cfg.ReferencePrefix, s.cfg.ReferenceSecret, booking.ID, booking.UserID)
	transfer := qr.BankTransfer{
		BankName:      s.cfg.BankName,
		AccountNumber: s.cfg.AccountNumber,
		AccountName:   s.cfg.AccountName,
		Amount:        booking.TotalPrice,
		Reference:     reference,
	}
	code, err := s.qr.Encode(ctx, transfer.Content())
	if err != nil {
		return nil, fmt.Errorf("generate payment qr: %w", err)
	}

	ok, err := s.bookings.CompareAndSet(ctx, bookingID, repository.Guard{
		Statuses:        []models.BookingStatus{models.BookingConfirmed},
		PaymentStatuses: []models.PaymentStatus{models.PaymentUnpaid, models.PaymentPending},
	}, map[string]interface{}{
		"status":            models.BookingPaymentPending,
		"payment_status":    models.PaymentPendingVerification,
		"payment_method":    defaultPaymentMethod,
		"payment_reference": reference,
		"payment_qr_code":   code,
	})
	if err != nil {
		s.discardQR(ctx, bookingID, code)
		return nil, err
	}
	if !ok {
		s.discardQR(ctx, bookingID, code)
		return nil, s.recheck(ctx, bookingID, initiateAllowed)
	}

	booking, err = s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("reload booking: %w", err)
	}
	s.transitioned(booking, models.PaymentPendingVerification)

	payload := bookingSummary(booking, booking.Homestay)
	payload["bank_name"] = transfer.BankName
	payload["account_number"] = transfer.AccountNumber
	payload["account_name"] = transfer.AccountName
	payload["amount"] = transfer.Amount
	payload["payment_reference"] = reference
	payload["payment_qr_code"] = code
	s.notifyOwner(ctx, booking, notify.KindPaymentInstructions, payload)
	return booking, nil
}

func (s *PaymentService) discardQR(ctx context.Context, bookingID uuid.UUID, code string) {
	if err := s.qr.Remove(context.WithoutCancel(ctx), code); err != nil {
		s.log.WithError(err).WithField("booking_id", bookingID).Warn("orphaned payment qr")
	}
}

// ConfirmUserPayment records the owner's claim that the transfer was made.
func (s *PaymentService) ConfirmUserPayment(ctx context.Context, userID, bookingID uuid.UUID, params ConfirmPaymentParams) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if booking.UserID != userID {
		return nil, forbidden("you cannot confirm payment for this booking")
	}
	if err := confirmAllowed(booking); err != nil {
		return nil, err
	}

	method := params.Method
	if method == "" {
		method = defaultPaymentMethod
	}
	updates := map[string]interface{}{
		"payment_status":       models.PaymentWaitingApproval,
		"payment_method":       method,
		"payment_confirmed_at": s.now(),
	}
	if params.Reference != "" {
		updates["payment_reference"] = params.Reference
	}

	ok, err := s.bookings.CompareAndSet(ctx, bookingID, repository.Guard{
		Statuses:        []models.BookingStatus{models.BookingConfirmed, models.BookingPaymentPending},
		PaymentStatuses: []models.PaymentStatus{models.PaymentPending, models.PaymentPendingVerification},
	}, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.recheck(ctx, bookingID, confirmAllowed)
	}

	booking, err = s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("reload booking: %w", err)
	}
	s.transitioned(booking, models.PaymentWaitingApproval)

	payload := bookingSummary(booking, booking.Homestay)
	payload["user_id"] = booking.UserID.String()
	payload["payment_method"] = method
	if booking.PaymentReference != nil {
		payload["payment_reference"] = *booking.PaymentReference
	}
	dispatch(ctx, s.notifier, s.log, notify.Notification{
		Kind:       notify.KindPaymentWaitingApproval,
		Recipient:  s.cfg.AdminEmail,
		Payload:    payload,
		OccurredAt: s.now(),
	})
	return booking, nil
}

// VerifyPayment approves or rejects a payment awaiting approval. A
// rejected payment returns to pending and can be confirmed again.
func (s *PaymentService) VerifyPayment(ctx context.Context, bookingID, adminID uuid.UUID, approved bool, notes string) (*models.Booking, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if err := verifyAllowed(booking); err != nil {
		return nil, err
	}

	now := s.now()
	var updates map[string]interface{}
	target := models.PaymentPaid
	if approved {
		updates = map[string]interface{}{
			"payment_status":      models.PaymentPaid,
			"status":              models.BookingRented,
			"payment_verified_by": adminID,
			"payment_verified_at": now,
			"payment_date":        now,
		}
		if notes != "" {
			updates["notes"] = appendNote(booking.Notes, notes)
		}
	} else {
		target = models.PaymentPending
		note := "Payment rejected"
		if notes != "" {
			note += ": " + notes
		}
		updates = map[string]interface{}{
			"payment_status": models.PaymentPending,
			"notes":          appendNote(booking.Notes, note),
		}
	}

	ok, err := s.bookings.CompareAndSet(ctx, bookingID, repository.Guard{
		Statuses:        []models.BookingStatus{models.BookingConfirmed, models.BookingPaymentPending},
		PaymentStatuses: []models.PaymentStatus{models.PaymentWaitingApproval},
	}, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.recheck(ctx, bookingID, verifyAllowed)
	}

	booking, err = s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("reload booking: %w", err)
	}
	s.transitioned(booking, target)

	payload := bookingSummary(booking, booking.Homestay)
	payload["approved"] = approved
	payload["payment_status"] = booking.PaymentStatus
	if notes != "" {
		payload["notes"] = notes
	}
	s.notifyOwner(ctx, booking, notify.KindPaymentResult, payload)
	return booking, nil
}

// RefundPayment refunds a paid booking and releases its dates.
func (s *PaymentService) RefundPayment(ctx context.Context, bookingID, adminID uuid.UUID, notes string) (*models.Booking, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if err := refundAllowed(booking); err != nil {
		return nil, err
	}

	note := "Payment refunded"
	if notes != "" {
		note += ": " + notes
	}
	ok, err := s.bookings.CompareAndSet(ctx, bookingID, repository.Guard{
		PaymentStatuses: []models.PaymentStatus{models.PaymentPaid},
	}, map[string]interface{}{
		"payment_status": models.PaymentRefunded,
		"status":         models.BookingCancelled,
		"notes":          appendNote(booking.Notes, note),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.recheck(ctx, bookingID, refundAllowed)
	}

	booking, err = s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("reload booking: %w", err)
	}
	s.transitioned(booking, models.PaymentRefunded)

	payload := bookingSummary(booking, booking.Homestay)
	payload["payment_status"] = booking.PaymentStatus
	s.notifyOwner(ctx, booking, notify.KindPaymentResult, payload)
	return booking, nil
}

func (s *PaymentService) GetPaymentInfo(ctx context.Context, actor Actor, bookingID uuid.UUID) (*PaymentInfo, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if !actor.canAccess(booking) {
		return nil, forbidden("you cannot view this payment")
	}
	return &PaymentInfo{
		BookingID:     booking.ID,
		Amount:        booking.TotalPrice,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		Method:        booking.PaymentMethod,
		Reference:     booking.PaymentReference,
		QRCode:        booking.PaymentQRCode,
		BankName:      s.cfg.BankName,
		AccountNumber: s.cfg.AccountNumber,
		AccountName:   s.cfg.AccountName,
		ConfirmedAt:   booking.PaymentConfirmedAt,
		VerifiedAt:    booking.PaymentVerifiedAt,
		PaidAt:        booking.PaymentDate,
	}, nil
}

// ListPendingPayments is the admin approval queue.
func (s *PaymentService) ListPendingPayments(ctx context.Context, page, limit int) (Page[models.Booking], error) {
	bookings, total, err := s.bookings.List(ctx, repository.BookingFilter{
		PaymentStatuses: []models.PaymentStatus{
			models.PaymentPending,
			models.PaymentPendingVerification,
			models.PaymentWaitingApproval,
		},
		Page:  page,
		Limit: limit,
	})
	if err != nil {
		return Page[models.Booking]{}, err
	}
	return newPage(bookings, total, page, limit), nil
}

func (s *PaymentService) requireAdmin(ctx context.Context, adminID uuid.UUID) error {
	admin, err := s.users.FindUser(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return forbidden("admin access required")
		}
		return fmt.Errorf("find admin: %w", err)
	}
	if !admin.IsAdmin() {
		return forbidden("admin access required")
	}
	return nil
}

// recheck explains a lost compare-and-set by re-running the precondition
// against the current row.
func (s *PaymentService) recheck(ctx context.Context, bookingID uuid.UUID, allowed func(*models.Booking) error) error {
	current, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return lookupErr(err, "booking")
	}
	if err := allowed(current); err != nil {
		return err
	}
	return invalidTransition("booking was modified concurrently")
}

func (s *PaymentService) transitioned(b *models.Booking, to models.PaymentStatus) {
	metrics.PaymentTransitions.WithLabelValues(string(to)).Inc()
	s.log.WithFields(logrus.Fields{
		"booking_id":     b.ID,
		"status":         b.Status,
		"payment_status": to,
	}).Info("payment status updated")
}

func (s *PaymentService) notifyOwner(ctx context.Context, b *models.Booking, kind notify.Kind, payload map[string]any) {
	user, err := s.users.FindUser(ctx, b.UserID)
	if err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("booking owner lookup failed")
		return
	}
	dispatch(ctx, s.notifier, s.log, notify.Notification{
		Kind:       kind,
		Recipient:  user.Email,
		Payload:    payload,
		OccurredAt: s.now(),
	})
}

func initiateAllowed(b *models.Booking) error {
	if b.PaymentStatus == models.PaymentPaid {
		return alreadyPaid()
	}
	if b.Status != models.BookingConfirmed {
		return invalidTransition(fmt.Sprintf("payment cannot be initiated for a %s booking", b.Status))
	}
	if b.PaymentStatus != models.PaymentUnpaid && b.PaymentStatus != models.PaymentPending {
		return invalidTransition(fmt.Sprintf("payment cannot be initiated while %s", b.PaymentStatus))
	}
	return nil
}

func confirmAllowed(b *models.Booking) error {
	switch b.PaymentStatus {
	case models.PaymentPaid:
		return alreadyPaid()
	case models.PaymentWaitingApproval:
		return alreadyConfirmed()
	case models.PaymentPending, models.PaymentPendingVerification:
		if b.Status == models.BookingConfirmed || b.Status == models.BookingPaymentPending {
			return nil
		}
	}
	return invalidTransition(fmt.Sprintf("payment cannot be confirmed for a %s booking with payment %s", b.Status, b.PaymentStatus))
}

func verifyAllowed(b *models.Booking) error {
	if b.PaymentStatus == models.PaymentPaid {
		return alreadyPaid()
	}
	if b.PaymentStatus != models.PaymentWaitingApproval {
		return invalidTransition("payment is not awaiting approval")
	}
	if b.Status != models.BookingConfirmed && b.Status != models.BookingPaymentPending {
		return invalidTransition(fmt.Sprintf("payment cannot be verified for a %s booking", b.Status))
	}
	return nil
}

func refundAllowed(b *models.Booking) error {
	if b.PaymentStatus != models.PaymentPaid {
		return invalidTransition("only paid bookings can be refunded")
	}
	return nil
}

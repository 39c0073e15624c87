package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/farellandr/homestay/internal/logger"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/notify"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/farellandr/homestay/internal/services"
	"github.com/farellandr/homestay/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeQR struct {
	mu       sync.Mutex
	payloads []string
	removed  []string
	err      error
}

func (f *fakeQR) Encode(_ context.Context, payload string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, payload)
	return "/uploads/qrcodes/payment-test.png", nil
}

func (f *fakeQR) Remove(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, ref)
	return nil
}

type env struct {
	db        *gorm.DB
	notifier  *notify.Recorder
	qr        *fakeQR
	bookings  *services.BookingService
	payments  *services.PaymentService
	homestays *services.HomestayService
	reviews   *services.ReviewService
	auth      *services.AuthService
	verifier  *services.VerificationHandler
	guest     *models.User
	admin     *models.User
	homestay  *models.Homestay
}

func newEnv(t *testing.T, cfg services.BookingConfig) *env {
	t.Helper()

	db := testutil.NewDB(t)
	log := logger.Discard()
	recorder := &notify.Recorder{}
	encoder := &fakeQR{}
	clock := func() time.Time { return testNow }

	users := repository.NewUserRepository(db)
	homestayRepo := repository.NewHomestayRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	admin := testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	guest := testutil.CreateUser(t, db, "guest@example.com", models.RoleUser)

	bookings := services.NewBookingService(
		repository.NewTxManager(db), bookingRepo, users, homestayRepo, recorder, log, cfg,
	).WithClock(clock)

	return &env{
		db:       db,
		notifier: recorder,
		qr:       encoder,
		bookings: bookings,
		payments: services.NewPaymentService(bookingRepo, users, encoder, recorder, log, services.PaymentConfig{
			BankName:        "Vietcombank",
			AccountNumber:   "0123456789",
			AccountName:     "HOMESTAY CO",
			ReferenceSecret: "secret",
			AdminEmail:      "payments@homestay.local",
		}).WithClock(clock),
		homestays: services.NewHomestayService(homestayRepo, services.NewAvailabilityChecker(bookingRepo), log),
		reviews:   services.NewReviewService(repository.NewReviewRepository(db), homestayRepo, log),
		auth: services.NewAuthService(users, recorder, log, services.AuthConfig{
			Secret:   "jwt-secret",
			TokenTTL: time.Hour,
		}).WithHashCost(4).WithClock(clock),
		verifier: services.NewVerificationHandler(bookings),
		guest:    guest,
		admin:    admin,
		homestay: testutil.CreateHomestay(t, db, admin.ID, 1_000_000, 4),
	}
}

func (e *env) guestActor() services.Actor {
	return services.Actor{ID: e.guest.ID, Role: models.RoleUser}
}

func (e *env) adminActor() services.Actor {
	return services.Actor{ID: e.admin.ID, Role: models.RoleAdmin}
}

// book creates a booking and returns it with the credential that was sent.
func (e *env) book(t *testing.T, in, out time.Time) (*models.Booking, string) {
	t.Helper()
	b, err := e.bookings.CreateBooking(context.Background(), e.guest.ID, services.CreateBookingParams{
		HomestayID: e.homestay.ID,
		CheckIn:    in,
		CheckOut:   out,
		GuestCount: 2,
	})
	require.NoError(t, err)

	n, ok := e.notifier.Last(notify.KindBookingCreated)
	require.True(t, ok)
	return b, n.Payload["credential"].(string)
}

// confirmed returns a booking that has been verified.
func (e *env) confirmed(t *testing.T, in, out time.Time) *models.Booking {
	t.Helper()
	b, otp := e.book(t, in, out)
	b, err := e.bookings.VerifyBookingOTP(context.Background(), b.ID, otp)
	require.NoError(t, err)
	return b
}

// awaitingApproval returns a booking whose payment the guest has confirmed.
func (e *env) awaitingApproval(t *testing.T, in, out time.Time) *models.Booking {
	t.Helper()
	ctx := context.Background()
	b := e.confirmed(t, in, out)
	_, err := e.payments.InitiatePayment(ctx, e.guestActor(), b.ID)
	require.NoError(t, err)
	b, err = e.payments.ConfirmUserPayment(ctx, e.guest.ID, b.ID, services.ConfirmPaymentParams{})
	require.NoError(t, err)
	return b
}

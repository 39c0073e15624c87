package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/farellandr/homestay/internal/logger"
	"github.com/farellandr/homestay/internal/notify"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/farellandr/homestay/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accountService returns an auth service whose clock reads *now.
func accountService(e *env, now *time.Time) *services.AuthService {
	return services.NewAuthService(repository.NewUserRepository(e.db), e.notifier, logger.Discard(), services.AuthConfig{
		Secret:        "jwt-secret",
		EmailOTPTTL:   15 * time.Minute,
		ResetTokenTTL: time.Hour,
		ResetCooldown: 30 * time.Second,
	}).WithHashCost(4).WithClock(func() time.Time { return *now })
}

func TestRegisterSendsEmailVerification(t *testing.T) {
	e := newEnv(t, services.BookingConfig{})
	ctx := context.Background()
	now := testNow
	auth := accountService(e, &now)

	u, err := auth.Register(ctx, services.RegisterParams{Email: "Minh@Example.com", Password: "s3cret-pass", FirstName: "Minh"})
	require.NoError(t, err)
	assert.False(t, u.EmailVerified)

	n, ok := e.notifier.Last(notify.KindEmailVerification)
	require.True(t, ok)
	assert.Equal(t, "minh@example.com", n.Recipient)
	otp := n.Payload["otp"].(string)
	assert.Regexp(t, `^[0-9]{6}$`, otp)
	assert.Equal(t, testNow.Add(15*time.Minute), n.Payload["expires_at"])

	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}
	_, err = auth.VerifyEmail(ctx, "minh@example.com", wrong)
	assert.ErrorIs(t, err, services.ErrInvalidOrExpired)
	assert.ErrorIs(t, err, &services.Error{Kind: services.KindInvalidOrExpired, Field: "otp"})

	_, err = auth.VerifyEmail(ctx, "minh@example.com", "12ab56")
	assert.ErrorIs(t, err, services.ErrInvalidOrExpired)

	verified, err := auth.VerifyEmail(ctx, " MINH@example.com ", otp)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)
	assert.Equal(t, u.ID, verified.ID)

	_, ok = e.notifier.Last(notify.KindEmailVerified)
	assert.True(t, ok)

	_, err = auth.VerifyEmail(ctx, "minh@example.com", otp)
	assert.ErrorIs(t, err, services.ErrInvalidOrExpired, "code is single use")
}

func TestVerifyEmailExpired(t *testing.T) {
	e := newEnv(t, services.BookingConfig{})
	ctx := context.Background()
	now := testNow
	auth := accountService(e, &now)

	_, err := auth.Register(ctx, services.RegisterParams{Email: "late@example.com", Password: "s3cret-pass", FirstName: "Late"})
	require.NoError(t, err)
	n, ok := e.notifier.Last(notify.KindEmailVerification)
	require.True(t, ok)

	now = testNow.Add(15 * time.Minute)
	_, err = auth.VerifyEmail(ctx, "late@example.com", n.Payload["otp"].(string))
	assert.ErrorIs(t, err, services.ErrInvalidOrExpired)

	res, err := auth.Login(ctx, "late@example.com", "s3cret-pass")
	require.NoError(t, err, "unverified accounts can still log in")
	assert.False(t, res.User.EmailVerified)
}

func TestForgotPassword(t *testing.T) {
	e := newEnv(t, services.BookingConfig{})
	ctx := context.Background()
	now := testNow
	auth := accountService(e, &now)

	require.NoError(t, auth.ForgotPassword(ctx, "nobody@example.com"))
	assert.Empty(t, e.notifier.Sent(), "unknown email is silent")

	require.NoError(t, auth.ForgotPassword(ctx, "Guest@Example.com"))
	n, ok := e.notifier.Last(notify.KindPasswordReset)
	require.True(t, ok)
	assert.Equal(t, e.guest.Email, n.Recipient)
	first := n.Payload["token"].(string)
	assert.Regexp(t, `^[0-9a-f]{40}$`, first)
	assert.Equal(t, testNow.Add(time.Hour), n.Payload["expires_at"])

	now = testNow.Add(10 * time.Second)
	require.NoError(t, auth.ForgotPassword(ctx, e.guest.Email), "cooldown does not surface as an error")
	assert.Len(t, e.notifier.Sent(), 1)

	now = testNow.Add(31 * time.Second)
	require.NoError(t, auth.ForgotPassword(ctx, e.guest.Email))
	require.Len(t, e.notifier.Sent(), 2)
	n, _ = e.notifier.Last(notify.KindPasswordReset)
	second := n.Payload["token"].(string)
	assert.NotEqual(t, first, second)

	err := auth.ResetPassword(ctx, first, "brand-new-pass")
	assert.ErrorIs(t, err, &services.Error{Kind: services.KindInvalidOrExpired, Field: "token"}, "a newer request replaces the token")
}

func TestResetPassword(t *testing.T) {
	e := newEnv(t, services.BookingConfig{})
	ctx := context.Background()
	now := testNow
	auth := accountService(e, &now)

	require.NoError(t, auth.ForgotPassword(ctx, e.guest.Email))
	n, ok := e.notifier.Last(notify.KindPasswordReset)
	require.True(t, ok)
	token := n.Payload["token"].(string)

	err := auth.ResetPassword(ctx, token, "short")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	err = auth.ResetPassword(ctx, "not-a-token", "brand-new-pass")
	assert.ErrorIs(t, err, services.ErrInvalidOrExpired)

	require.NoError(t, auth.ResetPassword(ctx, token, "brand-new-pass"))
	_, ok = e.notifier.Last(notify.KindPasswordChanged)
	assert.True(t, ok)

	_, err = auth.Login(ctx, e.guest.Email, "password")
	assert.ErrorIs(t, err, services.ErrUnauthorized, "old password no longer works")
	_, err = auth.Login(ctx, e.guest.Email, "brand-new-pass")
	require.NoError(t, err)

	err = auth.ResetPassword(ctx, token, "another-pass")
	assert.ErrorIs(t, err, services.ErrInvalidOrExpired, "token is single use")
}

func TestResetPasswordExpired(t *testing.T) {
	e := newEnv(t, services.BookingConfig{})
	ctx := context.Background()
	now := testNow
	auth := accountService(e, &now)

	require.NoError(t, auth.ForgotPassword(ctx, e.guest.Email))
	n, ok := e.notifier.Last(notify.KindPasswordReset)
	require.True(t, ok)

	now = testNow.Add(time.Hour)
	err := auth.ResetPassword(ctx, n.Payload["token"].(string), "brand-new-pass")
	assert.ErrorIs(t, err, services.ErrInvalidOrExpired)

	_, err = auth.Login(ctx, e.guest.Email, "password")
	assert.NoError(t, err)
}

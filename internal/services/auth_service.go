package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farellandr/homestay/internal/helpers"
	"github.com/farellandr/homestay/internal/models"
	"github.com/farellandr/homestay/internal/notify"
	"github.com/farellandr/homestay/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindRole(ctx context.Context, name string) (*models.Role, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, phone string) error
	ConsumeEmailVerification(ctx context.Context, email, otp string, now time.Time) (bool, error)
	StartPasswordReset(ctx context.Context, id uuid.UUID, reset models.Credential, requestedAt, notBefore time.Time) (bool, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	ConsumePasswordReset(ctx context.Context, id uuid.UUID, token, hashedPassword string, now time.Time) (bool, error)
}

// AuthConfig holds token lifetimes. Zero durations take the defaults below.
type AuthConfig struct {
	Secret        string
	TokenTTL      time.Duration
	EmailOTPTTL   time.Duration
	ResetTokenTTL time.Duration
	ResetCooldown time.Duration
}

const (
	defaultTokenTTL      = 24 * time.Hour
	defaultEmailOTPTTL   = 15 * time.Minute
	defaultResetTokenTTL = time.Hour
	defaultResetCooldown = 30 * time.Second
	minPasswordLength    = 6
)

type RegisterParams struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	users    UserStore
	notifier notify.Notifier
	cfg      AuthConfig
	hashCost int
	now      func() time.Time
	log      *logrus.Logger
}

func NewAuthService(users UserStore, notifier notify.Notifier, log *logrus.Logger, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.EmailOTPTTL <= 0 {
		cfg.EmailOTPTTL = defaultEmailOTPTTL
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = defaultResetTokenTTL
	}
	if cfg.ResetCooldown <= 0 {
		cfg.ResetCooldown = defaultResetCooldown
	}
	return &AuthService{
		users:    users,
		notifier: notifier,
		cfg:      cfg,
		hashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// WithHashCost lowers the bcrypt cost, for tests.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.hashCost = cost
	return s
}

func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register creates a guest account and mails a one-time code for
// /verify-email. Admins are provisioned out of band.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, conflict("email", "user already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	role, err := s.users.FindRole(ctx, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("find role: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	otp, err := newOTP(now.Add(s.cfg.EmailOTPTTL))
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:       email,
		Password:    string(hashed),
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		PhoneNumber: strings.TrimSpace(p.PhoneNumber),
		RoleID:      role.ID,
	}
	user.SetEmailVerification(otp)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("email", "user already exists")
		}
		return nil, err
	}
	user.Role = *role

	s.log.WithField("user_id", user.ID).Info("user registered")
	dispatch(ctx, s.notifier, s.log, notify.Notification{
		Kind:      notify.KindEmailVerification,
		Recipient: user.Email,
		Payload: map[string]any{
			"name":       user.FullName(),
			"otp":        otp.Value,
			"expires_at": otp.ExpiresAt,
		},
		OccurredAt: now,
	})
	return user, nil
}

// VerifyEmail consumes the registration code sent to email.
func (s *AuthService) VerifyEmail(ctx context.Context, email, otp string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !otpPattern.MatchString(otp) {
		return nil, invalidEmailCode()
	}

	now := s.now()
	ok, err := s.users.ConsumeEmailVerification(ctx, email, otp, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidEmailCode()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	s.log.WithField("user_id", user.ID).Info("email verified")
	dispatch(ctx, s.notifier, s.log, notify.Notification{
		Kind:       notify.KindEmailVerified,
		Recipient:  user.Email,
		Payload:    map[string]any{"name": user.FullName()},
		OccurredAt: now,
	})
	return user, nil
}

// ForgotPassword mails a reset token. Unknown addresses and requests inside
// the cooldown also return nil, so the response does not reveal accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	now := s.now()
	reset, err := newToken(resetTokenBytes, now.Add(s.cfg.ResetTokenTTL))
	if err != nil {
		return err
	}
	ok, err := s.users.StartPasswordReset(ctx, user.ID, *reset, now, now.Add(-s.cfg.ResetCooldown))
	if err != nil {
		return err
	}
	if !ok {
		s.log.WithField("user_id", user.ID).Info("password reset throttled")
		return nil
	}

	dispatch(ctx, s.notifier, s.log, notify.Notification{
		Kind:      notify.KindPasswordReset,
		Recipient: user.Email,
		Payload: map[string]any{
			"name":       user.FullName(),
			"token":      reset.Value,
			"expires_at": reset.ExpiresAt,
		},
		OccurredAt: now,
	})
	return nil
}

// ResetPassword sets a new password using a token from ForgotPassword.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLength {
		return invalidInput("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	now := s.now()
	user, err := s.users.FindByResetToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalidResetToken()
		}
		return fmt.Errorf("find reset token: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	ok, err := s.users.ConsumePasswordReset(ctx, user.ID, token, string(hashed), now)
	if err != nil {
		return err
	}
	if !ok {
		return invalidResetToken()
	}

	s.log.WithField("user_id", user.ID).Info("password reset")
	dispatch(ctx, s.notifier, s.log, notify.Notification{
		Kind:       notify.KindPasswordChanged,
		Recipient:  user.Email,
		Payload:    map[string]any{"name": user.FullName()},
		OccurredAt: now,
	})
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	invalid := &Error{Kind: KindUnauthorized, Message: "invalid credentials"}

	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}

	token, err := helpers.GenerateJWT(s.cfg.Secret, user.ID, user.Role.Name, s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{Token: token, User: user}, nil
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindUser(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName, phone string) (*models.User, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, invalidInput("firstName", "first name is required")
	}
	if err := s.users.UpdateProfile(ctx, userID, firstName, strings.TrimSpace(lastName), strings.TrimSpace(phone)); err != nil {
		return nil, lookupErr(err, "user")
	}
	return s.Me(ctx, userID)
}

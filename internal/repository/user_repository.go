package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/farellandr/homestay/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := conn(ctx, r.db).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

// FindUser loads a user with its role.
func (r *UserRepository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Preload("Role").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Preload("Role").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindRole(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := conn(ctx, r.db).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, phone string) error {
	res := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"first_name":   firstName,
		"last_name":    lastName,
		"phone_number": phone,
	})
	if res.Error != nil {
		return fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeEmailVerification marks the account verified when otp is the
// outstanding code for email and has not expired. The code is single use.
func (r *UserRepository) ConsumeEmailVerification(ctx context.Context, email, otp string, now time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&models.User{}).
		Where("email = ? AND email_verification_otp = ? AND email_verification_expires_at > ?", email, otp, now).
		Updates(map[string]interface{}{
			"email_verified":                true,
			"email_verification_otp":        nil,
			"email_verification_expires_at": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume email verification: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// StartPasswordReset stores reset on the user unless the previous request
// was made after notBefore.
func (r *UserRepository) StartPasswordReset(ctx context.Context, id uuid.UUID, reset models.Credential, requestedAt, notBefore time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&models.User{}).
		Where("id = ?", id).
		Where("(password_reset_requested_at IS NULL OR password_reset_requested_at <= ?)", notBefore).
		Updates(map[string]interface{}{
			"password_reset_token":        reset.Value,
			"password_reset_expires_at":   reset.ExpiresAt,
			"password_reset_requested_at": requestedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("start password reset: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).Preload("Role").
		Where("password_reset_token = ? AND password_reset_expires_at > ?", token, now).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ConsumePasswordReset swaps in the new password hash if token is still the
// user's unexpired reset token.
func (r *UserRepository) ConsumePasswordReset(ctx context.Context, id uuid.UUID, token, hashedPassword string, now time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&models.User{}).
		Where("id = ? AND password_reset_token = ? AND password_reset_expires_at > ?", id, token, now).
		Updates(map[string]interface{}{
			"password":                  hashedPassword,
			"password_reset_token":      nil,
			"password_reset_expires_at": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume password reset: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

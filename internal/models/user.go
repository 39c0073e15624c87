package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email         string    `gorm:"unique;not null" json:"email"`
	Password      string    `gorm:"not null" json:"-"`
	FirstName     string    `gorm:"size:100;not null" json:"first_name"`
	LastName      string    `gorm:"size:100;not null" json:"last_name"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	RoleID        uuid.UUID `gorm:"type:uuid;not null" json:"-"`
	Role          Role      `json:"role"`

	EmailVerificationOTP       *string    `gorm:"size:6" json:"-"`
	EmailVerificationExpiresAt *time.Time `json:"-"`
	PasswordResetToken         *string    `gorm:"size:64;index" json:"-"`
	PasswordResetExpiresAt     *time.Time `json:"-"`
	PasswordResetRequestedAt   *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return
}

// IsAdmin reports whether the user's role was loaded and is admin.
func (user *User) IsAdmin() bool {
	return user.Role.Name == RoleAdmin
}

func (user *User) FullName() string {
	if user.LastName == "" {
		return user.FirstName
	}
	return user.FirstName + " " + user.LastName
}

// SetEmailVerification stores a pending email OTP, or clears it when c is nil.
func (user *User) SetEmailVerification(c *Credential) {
	if c == nil {
		user.EmailVerificationOTP = nil
		user.EmailVerificationExpiresAt = nil
		return
	}
	value, expires := c.Value, c.ExpiresAt
	user.EmailVerificationOTP = &value
	user.EmailVerificationExpiresAt = &expires
}

func (user *User) EmailVerification() *Credential {
	if user.EmailVerificationOTP == nil || user.EmailVerificationExpiresAt == nil {
		return nil
	}
	return &Credential{
		Kind:      CredentialOTP,
		Value:     *user.EmailVerificationOTP,
		ExpiresAt: *user.EmailVerificationExpiresAt,
	}
}

// PasswordReset returns the outstanding reset token, if any.
func (user *User) PasswordReset() *Credential {
	if user.PasswordResetToken == nil || user.PasswordResetExpiresAt == nil {
		return nil
	}
	return &Credential{
		Kind:      CredentialToken,
		Value:     *user.PasswordResetToken,
		ExpiresAt: *user.PasswordResetExpiresAt,
	}
}

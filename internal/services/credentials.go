package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/farellandr/homestay/internal/models"
)

const (
	bookingTokenBytes = 32
	resetTokenBytes   = 20
)

func newCredential(cfg BookingConfig, now time.Time) (*models.Credential, error) {
	if cfg.CredentialKind == models.CredentialToken {
		return newToken(bookingTokenBytes, now.Add(cfg.TokenTTL))
	}
	return newOTP(now.Add(cfg.OTPTTL))
}

// newOTP returns a six-digit code.
func newOTP(expiresAt time.Time) (*models.Credential, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	return &models.Credential{
		Kind:      models.CredentialOTP,
		Value:     fmt.Sprintf("%06d", n.Int64()),
		ExpiresAt: expiresAt,
	}, nil
}

// newToken returns size random bytes, hex encoded.
func newToken(size int, expiresAt time.Time) (*models.Credential, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &models.Credential{
		Kind:      models.CredentialToken,
		Value:     hex.EncodeToString(buf),
		ExpiresAt: expiresAt,
	}, nil
}

package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const referenceLength = 10

// PaymentReference derives the bank-transfer reference for a booking. The
// same booking and user always yield the same reference.
func PaymentReference(prefix, secretKey string, bookingID, userID uuid.UUID) string {
	return prefix + strings.ToUpper(GenerateSignature(secretKey, bookingID.String(), userID.String())[:referenceLength])
}

func GenerateSignature(secretKey string, parts ...string) string {
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h.Sum(nil))
}

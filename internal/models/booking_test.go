package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingCredential(t *testing.T) {
	b := &Booking{}
	assert.Nil(t, b.Credential())

	expires := time.Date(2025, 5, 20, 10, 15, 0, 0, time.UTC)
	b.SetCredential(&Credential{Kind: CredentialOTP, Value: "123456", ExpiresAt: expires})

	c := b.Credential()
	require.NotNil(t, c)
	assert.Equal(t, CredentialOTP, c.Kind)
	assert.Equal(t, "123456", c.Value)
	assert.False(t, c.Expired(expires.Add(-time.Second)))
	assert.True(t, c.Expired(expires), "a credential is expired at its deadline")

	b.SetCredential(nil)
	assert.Nil(t, b.Credential())
	assert.Nil(t, b.CredentialValue)
}

func TestBookingNightsAndHolds(t *testing.T) {
	b := &Booking{
		CheckInDate:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOutDate: time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 3, b.Nights())

	for _, s := range ActiveHoldStatuses() {
		b.Status = s
		assert.True(t, b.Holds(), s)
	}
	b.Status = BookingCancelled
	assert.False(t, b.Holds())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, BookingPaymentPending.Valid())
	assert.False(t, BookingStatus("archived").Valid())
	assert.True(t, PaymentWaitingApproval.Valid())
	assert.False(t, PaymentStatus("").Valid())
	assert.True(t, HomestayMaintenance.Valid())
	assert.False(t, HomestayStatus("closed").Valid())
}

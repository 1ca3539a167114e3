package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusTransferFailed,
}

func TestCanTransition_NeverBackToPending(t *testing.T) {
	for _, from := range allStatuses {
		assert.Falsef(t, CanTransition(from, PaymentStatusPending), "%s -> pending", from)
	}
}

func TestCanTransition_SettlementPaths(t *testing.T) {
	assert.True(t, CanTransition(PaymentStatusPending, PaymentStatusProcessing))
	assert.True(t, CanTransition(PaymentStatusProcessing, PaymentStatusCompleted))
	assert.True(t, CanTransition(PaymentStatusProcessing, PaymentStatusTransferFailed))
	assert.True(t, CanTransition(PaymentStatusCompleted, PaymentStatusRefunded))

	assert.False(t, CanTransition(PaymentStatusPending, PaymentStatusCompleted))
	assert.False(t, CanTransition(PaymentStatusTransferFailed, PaymentStatusCompleted))
	assert.False(t, CanTransition(PaymentStatusCompleted, PaymentStatusProcessing))
}

func TestTerminal(t *testing.T) {
	assert.True(t, PaymentStatusTransferFailed.Terminal())
	assert.True(t, PaymentStatusRefunded.Terminal())
	assert.True(t, PaymentStatusFailed.Terminal())
	assert.False(t, PaymentStatusCompleted.Terminal())
}

func TestDeriveAccountStatus(t *testing.T) {
	assert.Equal(t, AccountStatusIncomplete, DeriveAccountStatus(false, true, true))
	assert.Equal(t, AccountStatusPending, DeriveAccountStatus(true, true, false))
	assert.Equal(t, AccountStatusActive, DeriveAccountStatus(true, true, true))
}

func TestParsePaymentStatus(t *testing.T) {
	s, ok := ParsePaymentStatus("transfer_failed")
	assert.True(t, ok)
	assert.Equal(t, PaymentStatusTransferFailed, s)

	_, ok = ParsePaymentStatus("succeeded")
	assert.False(t, ok)
}

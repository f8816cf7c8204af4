package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatusTerminality(t *testing.T) {
	assert.True(t, BookingStatusCancelled.IsTerminal())
	assert.True(t, BookingStatusCompleted.IsTerminal())
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusConfirmed.IsTerminal())
}

func TestParseRoundTrips(t *testing.T) {
	status, err := ParseBookingStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, BookingStatusConfirmed, status)

	_, err = ParseBookingStatus("archived")
	require.Error(t, err)

	method, err := ParsePaymentMethod("invoice")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodInvoice, method)

	kind, err := ParseAssetKind("vacant_shop")
	require.NoError(t, err)
	assert.Equal(t, AssetKindVacantShop, kind)

	refund, err := ParseRefundStatus("not_required")
	require.NoError(t, err)
	assert.Equal(t, RefundStatusNotRequired, refund)

	_, err = ParseTransactionType("chargeback")
	require.Error(t, err)
}

func TestReminderTierActionability(t *testing.T) {
	assert.True(t, ReminderTierUpcoming.IsActionable())
	assert.True(t, ReminderTierDue.IsActionable())
	assert.True(t, ReminderTierOverdue.IsActionable())
	assert.False(t, ReminderTierNone.IsActionable())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderType_IsValid(t *testing.T) {
	assert.True(t, OrderTypeReadyMade.IsValid())
	assert.True(t, OrderTypeCustomMade.IsValid())
	assert.False(t, OrderType("bespoke").IsValid())
	assert.False(t, OrderType("").IsValid())
}

func TestOrderType_NumberPrefix(t *testing.T) {
	assert.Equal(t, "RM", OrderTypeReadyMade.NumberPrefix())
	assert.Equal(t, "CM", OrderTypeCustomMade.NumberPrefix())
}

func TestStatusesFor(t *testing.T) {
	t.Run("ready-made catalog order", func(t *testing.T) {
		statuses := StatusesFor(OrderTypeReadyMade)
		require.Len(t, statuses, 9)
		assert.Equal(t, StatusNew, statuses[0])
		assert.Equal(t, StatusInDelivery, statuses[6])
		assert.Equal(t, StatusCompleted, statuses[7])
		assert.Equal(t, StatusCancelled, statuses[8])
	})

	t.Run("custom-made catalog order", func(t *testing.T) {
		statuses := StatusesFor(OrderTypeCustomMade)
		require.Len(t, statuses, 13)
		assert.Equal(t, StatusNewRequest, statuses[0])
		assert.Equal(t, StatusInstallation, statuses[10])
		assert.Equal(t, StatusCompleted, statuses[11])
		assert.Equal(t, StatusCancelled, statuses[12])
	})

	t.Run("unknown type returns nil", func(t *testing.T) {
		assert.Nil(t, StatusesFor(OrderType("bespoke")))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		statuses := StatusesFor(OrderTypeReadyMade)
		statuses[0] = StatusCancelled
		assert.Equal(t, StatusNew, StatusesFor(OrderTypeReadyMade)[0])
	})
}

func TestDefaultStatus(t *testing.T) {
	assert.Equal(t, StatusNew, DefaultStatus(OrderTypeReadyMade))
	assert.Equal(t, StatusNewRequest, DefaultStatus(OrderTypeCustomMade))
	assert.Equal(t, OrderStatus(""), DefaultStatus(OrderType("bespoke")))
}

func TestOrderStatus_ValidFor(t *testing.T) {
	assert.True(t, StatusPaid.ValidFor(OrderTypeReadyMade))
	assert.False(t, StatusPaid.ValidFor(OrderTypeCustomMade))

	assert.True(t, StatusInProduction.ValidFor(OrderTypeCustomMade))
	assert.False(t, StatusInProduction.ValidFor(OrderTypeReadyMade))

	// Terminal statuses are shared by both catalogs.
	for _, orderType := range OrderTypes() {
		assert.True(t, StatusCompleted.ValidFor(orderType))
		assert.True(t, StatusCancelled.ValidFor(orderType))
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusNew.IsTerminal())
	assert.False(t, StatusInstallation.IsTerminal())
}

func TestMetaFor(t *testing.T) {
	t.Run("every catalog status has metadata", func(t *testing.T) {
		for _, orderType := range OrderTypes() {
			for _, status := range StatusesFor(orderType) {
				meta, ok := MetaFor(status)
				require.True(t, ok, "missing metadata for status %q", status)
				assert.NotEmpty(t, meta.Label)
				assert.NotEmpty(t, meta.Color)
			}
		}
	})

	t.Run("unknown status has no metadata", func(t *testing.T) {
		_, ok := MetaFor(OrderStatus("waiting_for_godot"))
		assert.False(t, ok)
	})
}

func TestPaymentStatus_IsValid(t *testing.T) {
	assert.True(t, PaymentStatusUnpaid.IsValid())
	assert.True(t, PaymentStatusPartial.IsValid())
	assert.True(t, PaymentStatusFullyPaid.IsValid())
	assert.True(t, PaymentStatusRefunded.IsValid())
	assert.False(t, PaymentStatus("overdue").IsValid())
}

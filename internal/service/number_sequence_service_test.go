package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"github.com/woodline/crm-api/internal/testutil"
)

func TestNumberSequenceService_GenerateOrderNumber(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), zap.NewNop())
	ctx := context.Background()
	year := time.Now().Year()

	t.Run("numbers increment per type", func(t *testing.T) {
		first, err := svc.GenerateOrderNumber(ctx, domain.OrderTypeReadyMade)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("RM-%d-001", year), first)

		second, err := svc.GenerateOrderNumber(ctx, domain.OrderTypeReadyMade)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("RM-%d-002", year), second)
	})

	t.Run("types keep independent counters", func(t *testing.T) {
		custom, err := svc.GenerateOrderNumber(ctx, domain.OrderTypeCustomMade)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("CM-%d-001", year), custom)
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		_, err := svc.GenerateOrderNumber(ctx, domain.OrderType("bespoke"))
		assert.ErrorIs(t, err, domain.ErrUnknownOrderType)
	})

	t.Run("initialized sequence continues from the set value", func(t *testing.T) {
		require.NoError(t, svc.InitializeSequence(ctx, domain.OrderTypeCustomMade, year, 41))

		number, err := svc.GenerateOrderNumber(ctx, domain.OrderTypeCustomMade)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("CM-%d-042", year), number)

		current, err := svc.GetCurrentSequence(ctx, domain.OrderTypeCustomMade, year)
		require.NoError(t, err)
		assert.Equal(t, 42, current)
	})
}

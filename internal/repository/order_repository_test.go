package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/testutil"
)

func TestOrderRepository_ListWithFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	contact := testutil.CreateTestContact(t, db, "Nora", "Berg")
	ready := testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusNew, &contact.ID)
	testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusCompleted, &contact.ID)
	custom := testutil.CreateTestOrder(t, db, domain.OrderTypeCustomMade, domain.StatusInProduction, &contact.ID)

	t.Run("filter by type", func(t *testing.T) {
		orderType := domain.OrderTypeCustomMade
		orders, total, err := repo.ListWithFilters(ctx, 1, 20, &repository.OrderFilters{Type: &orderType}, repository.OrderSortByCreatedDesc)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, orders, 1)
		assert.Equal(t, custom.ID, orders[0].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		status := domain.StatusNew
		orders, total, err := repo.ListWithFilters(ctx, 1, 20, &repository.OrderFilters{Status: &status}, repository.OrderSortByCreatedDesc)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, orders, 1)
		assert.Equal(t, ready.ID, orders[0].ID)
	})

	t.Run("open only excludes terminal orders", func(t *testing.T) {
		_, total, err := repo.ListWithFilters(ctx, 1, 20, &repository.OrderFilters{OpenOnly: true}, repository.OrderSortByCreatedDesc)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("search matches order number", func(t *testing.T) {
		orders, total, err := repo.ListWithFilters(ctx, 1, 20, &repository.OrderFilters{Search: custom.Number}, repository.OrderSortByCreatedDesc)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, orders, 1)
		assert.Equal(t, custom.ID, orders[0].ID)
	})

	t.Run("pagination caps the page", func(t *testing.T) {
		orders, total, err := repo.ListWithFilters(ctx, 1, 2, nil, repository.OrderSortByCreatedAsc)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, orders, 2)
	})
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	contact := testutil.CreateTestContact(t, db, "Nora", "Berg")
	order := testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusNew, &contact.ID)

	t.Run("sets status and closing date together", func(t *testing.T) {
		closed := time.Now()
		require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.StatusCompleted, &closed))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status)
		require.NotNil(t, got.ClosingDate)
	})

	t.Run("clears the closing date when reopening", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, order.ID, domain.StatusNew, nil))

		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ClosingDate)
	})

	t.Run("vanished order reports record not found", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 99999, domain.StatusPaid, nil)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestOrderRepository_UpdatePayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	contact := testutil.CreateTestContact(t, db, "Nora", "Berg")
	order := testutil.CreateTestOrder(t, db, domain.OrderTypeCustomMade, domain.StatusInProduction, &contact.ID)

	partial := 2500.0
	require.NoError(t, repo.UpdatePayment(ctx, order.ID, domain.PaymentStatusPartial, &partial))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPartial, got.PaymentStatus)
	require.NotNil(t, got.PartialPaymentAmount)
	assert.Equal(t, partial, *got.PartialPaymentAmount)

	require.NoError(t, repo.UpdatePayment(ctx, order.ID, domain.PaymentStatusFullyPaid, nil))
	got, err = repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFullyPaid, got.PaymentStatus)
	assert.Nil(t, got.PartialPaymentAmount)

	assert.ErrorIs(t, repo.UpdatePayment(ctx, 99999, domain.PaymentStatusUnpaid, nil), gorm.ErrRecordNotFound)
}

func TestOrderRepository_ListStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	contact := testutil.CreateTestContact(t, db, "Nora", "Berg")
	stale := testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusAwaitingPayment, &contact.ID)
	testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusNew, &contact.ID)
	closed := testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusCancelled, &contact.ID)

	// Backdate without touching gorm's auto timestamps.
	backdated := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, db.Model(&domain.Order{}).
		Where("id IN ?", []uint{stale.ID, closed.ID}).
		UpdateColumn("updated_at", backdated).Error)

	orders, err := repo.ListStale(ctx, time.Now().Add(-14*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stale.ID, orders[0].ID)
}

func TestOrderRepository_PaymentQueries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewOrderRepository(db)
	ctx := context.Background()

	contact := testutil.CreateTestContact(t, db, "Nora", "Berg")
	unpaid := testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusAwaitingPayment, &contact.ID)
	paid := testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusCompleted, &contact.ID)

	amount := 12000.0
	unpaid.FinalAmount = &amount
	unpaid.PaymentStatus = domain.PaymentStatusUnpaid
	require.NoError(t, repo.Update(ctx, unpaid))
	require.NoError(t, repo.UpdatePayment(ctx, paid.ID, domain.PaymentStatusFullyPaid, nil))

	t.Run("aggregate groups by payment status", func(t *testing.T) {
		rows, err := repo.AggregatePayments(ctx)
		require.NoError(t, err)

		byStatus := make(map[domain.PaymentStatus]repository.PaymentAggregate, len(rows))
		for _, row := range rows {
			byStatus[row.PaymentStatus] = row
		}
		require.Contains(t, byStatus, domain.PaymentStatusUnpaid)
		assert.EqualValues(t, 1, byStatus[domain.PaymentStatusUnpaid].Count)
		assert.Equal(t, amount, byStatus[domain.PaymentStatusUnpaid].TotalAmount)
		require.Contains(t, byStatus, domain.PaymentStatusFullyPaid)
	})

	t.Run("count open skips terminal statuses", func(t *testing.T) {
		count, err := repo.CountOpen(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("awaiting payment excludes settled orders", func(t *testing.T) {
		orders, err := repo.ListAwaitingPayment(ctx)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, unpaid.ID, orders[0].ID)
	})

	t.Run("lookup by number", func(t *testing.T) {
		got, err := repo.GetByNumber(ctx, unpaid.Number)
		require.NoError(t, err)
		assert.Equal(t, unpaid.ID, got.ID)
	})
}

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/woodline/crm-api/internal/accounting"
	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"github.com/woodline/crm-api/internal/testutil"
)

// fakeInvoiceSource stands in for the accounting mirror.
type fakeInvoiceSource struct {
	invoices []accounting.SettledInvoice
}

func (f *fakeInvoiceSource) IsEnabled() bool { return true }

func (f *fakeInvoiceSource) ListSettledInvoices(ctx context.Context, since time.Time) ([]accounting.SettledInvoice, error) {
	return append([]accounting.SettledInvoice(nil), f.invoices...), nil
}

func TestPaymentSyncService_DisabledClient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewOrderStatusHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	hub := board.NewHub(service.NewBoardStore(orderRepo, historyRepo, zap.NewNop()), service.NewBoardNotifier(notificationRepo, zap.NewNop()), time.Second, zap.NewNop())

	svc := service.NewPaymentSyncService(
		nil, // no accounting mirror configured
		orderRepo,
		notificationRepo,
		hub,
		zap.NewNop(),
	)

	applied, skipped, failed, err := svc.SyncSettledPayments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)
	assert.Zero(t, skipped)
	assert.Zero(t, failed)
}

func TestPaymentSyncService_AppliedPaymentRefreshesBoard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewOrderStatusHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	hub := board.NewHub(service.NewBoardStore(orderRepo, historyRepo, zap.NewNop()), service.NewBoardNotifier(notificationRepo, zap.NewNop()), time.Second, zap.NewNop())
	ctx := context.Background()

	contact := testutil.CreateTestContact(t, db, "Nora", "Berg")
	order := testutil.CreateTestOrder(t, db, domain.OrderTypeReadyMade, domain.StatusAwaitingPayment, &contact.ID)
	amount := 4800.0
	order.FinalAmount = &amount
	order.PaymentStatus = domain.PaymentStatusUnpaid
	require.NoError(t, orderRepo.Update(ctx, order))

	// Warm the board so a live controller is caching the unpaid card.
	state, err := hub.Board(ctx, domain.OrderTypeReadyMade)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusUnpaid, state.Orders[order.ID].PaymentStatus)

	source := &fakeInvoiceSource{invoices: []accounting.SettledInvoice{{
		InvoiceNumber: "INV-2026-117",
		OrderNumber:   order.Number,
		AmountPaid:    amount,
		Currency:      "NOK",
		SettledAt:     time.Now(),
	}}}
	svc := service.NewPaymentSyncService(source, orderRepo, notificationRepo, hub, zap.NewNop())

	applied, skipped, failed, err := svc.SyncSettledPayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Zero(t, skipped)
	assert.Zero(t, failed)

	// The sync invalidated the board, so the next read reloads and shows
	// the settled payment instead of the cached card.
	state, err = hub.Board(ctx, domain.OrderTypeReadyMade)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFullyPaid, state.Orders[order.ID].PaymentStatus)

	got, err := orderRepo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFullyPaid, got.PaymentStatus)
	assert.Nil(t, got.PartialPaymentAmount)
}

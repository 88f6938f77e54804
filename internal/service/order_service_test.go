package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"github.com/woodline/crm-api/internal/testutil"
)

func createOrderService(db *gorm.DB) *service.OrderService {
	logger := zap.NewNop()
	orderRepo := repository.NewOrderRepository(db)
	historyRepo := repository.NewOrderStatusHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	numberSeqService := service.NewNumberSequenceService(repository.NewNumberSequenceRepository(db), logger)

	store := service.NewBoardStore(orderRepo, historyRepo, logger)
	notifier := service.NewBoardNotifier(notificationRepo, logger)
	hub := board.NewHub(store, notifier, 5*time.Second, logger)

	return service.NewOrderService(
		orderRepo,
		historyRepo,
		repository.NewContactRepository(db),
		repository.NewLeadRepository(db),
		repository.NewClientCompanyRepository(db),
		repository.NewSupplierRepository(db),
		repository.NewUserRepository(db),
		notificationRepo,
		numberSeqService,
		hub,
		logger,
	)
}

func orderTestContext(userID string, role domain.UserRoleType) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      userID,
		DisplayName: "Test User",
		Email:       userID + "@example.com",
		Role:        role,
	})
}

func TestOrderService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createOrderService(db)
	contact := testutil.CreateTestContact(t, db, "Kari", "Nordmann")
	ctx := orderTestContext("manager-1", domain.RoleManager)

	t.Run("creates ready-made order with default status", func(t *testing.T) {
		dto, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType: domain.OrderTypeReadyMade,
			ContactID: &contact.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusNew, dto.Status)
		assert.Equal(t, domain.PaymentStatusUnpaid, dto.PaymentStatus)
		assert.Contains(t, dto.Number, "RM-")
		assert.Nil(t, dto.ClosingDate)
	})

	t.Run("creates custom-made order with manufacturer", func(t *testing.T) {
		supplier := testutil.CreateTestSupplier(t, db, "Nordic Joinery")
		dto, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType:      domain.OrderTypeCustomMade,
			ContactID:      &contact.ID,
			ManufacturerID: &supplier.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusNewRequest, dto.Status)
		assert.Contains(t, dto.Number, "CM-")
	})

	t.Run("rejects manufacturer on ready-made order", func(t *testing.T) {
		supplier := testutil.CreateTestSupplier(t, db, "Oak & Pine")
		_, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType:      domain.OrderTypeReadyMade,
			ContactID:      &contact.ID,
			ManufacturerID: &supplier.ID,
		})
		assert.ErrorIs(t, err, service.ErrManufacturerNotAllowed)
	})

	t.Run("rejects order without contact or lead", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType: domain.OrderTypeReadyMade,
		})
		assert.ErrorIs(t, err, service.ErrMissingContactOrLead)
	})

	t.Run("accepts order with only a lead", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Ola Kunde")
		dto, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType: domain.OrderTypeReadyMade,
			LeadID:    &lead.ID,
		})
		require.NoError(t, err)
		assert.NotNil(t, dto.LeadID)
	})

	t.Run("rejects status from the wrong catalog", func(t *testing.T) {
		status := domain.StatusInProduction
		_, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType: domain.OrderTypeReadyMade,
			ContactID: &contact.ID,
			Status:    &status,
		})
		assert.ErrorIs(t, err, service.ErrStatusNotInCatalog)
	})

	t.Run("rejects partial payment status without amount", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType:     domain.OrderTypeReadyMade,
			ContactID:     &contact.ID,
			PaymentStatus: domain.PaymentStatusPartial,
		})
		assert.ErrorIs(t, err, service.ErrPartialAmountRequired)
	})

	t.Run("rejects partial amount without partial status", func(t *testing.T) {
		amount := 1500.0
		_, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType:            domain.OrderTypeReadyMade,
			ContactID:            &contact.ID,
			PaymentStatus:        domain.PaymentStatusUnpaid,
			PartialPaymentAmount: &amount,
		})
		assert.ErrorIs(t, err, service.ErrPartialAmountForbidden)
	})

	t.Run("sets closing date when created in terminal status", func(t *testing.T) {
		status := domain.StatusCancelled
		dto, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType: domain.OrderTypeReadyMade,
			ContactID: &contact.ID,
			Status:    &status,
		})
		require.NoError(t, err)
		assert.NotNil(t, dto.ClosingDate)
	})

	t.Run("records creation on the status trail", func(t *testing.T) {
		dto, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType: domain.OrderTypeReadyMade,
			ContactID: &contact.ID,
		})
		require.NoError(t, err)

		history, err := svc.StatusHistory(ctx, dto.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Nil(t, history[0].FromStatus)
		assert.Equal(t, domain.StatusNew, history[0].ToStatus)
	})

	t.Run("viewer cannot create orders", func(t *testing.T) {
		viewerCtx := orderTestContext("viewer-1", domain.RoleViewer)
		_, err := svc.Create(viewerCtx, &domain.CreateOrderRequest{
			OrderType: domain.OrderTypeReadyMade,
			ContactID: &contact.ID,
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("unauthenticated context is rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), &domain.CreateOrderRequest{
			OrderType: domain.OrderTypeReadyMade,
			ContactID: &contact.ID,
		})
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})
}

func TestOrderService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createOrderService(db)
	contact := testutil.CreateTestContact(t, db, "Per", "Hansen")
	ctx := orderTestContext("manager-1", domain.RoleManager)

	newOrder := func(t *testing.T, orderType domain.OrderType) *domain.OrderDTO {
		dto, err := svc.Create(ctx, &domain.CreateOrderRequest{
			OrderType: orderType,
			ContactID: &contact.ID,
		})
		require.NoError(t, err)
		return dto
	}

	t.Run("moves status within the catalog", func(t *testing.T) {
		order := newOrder(t, domain.OrderTypeReadyMade)
		status := domain.StatusAwaitingPayment

		updated, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAwaitingPayment, updated.Status)

		history, err := svc.StatusHistory(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, domain.StatusAwaitingPayment, history[0].ToStatus)
	})

	t.Run("rejects status outside the catalog", func(t *testing.T) {
		order := newOrder(t, domain.OrderTypeReadyMade)
		status := domain.StatusDesign

		_, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{Status: &status})
		assert.ErrorIs(t, err, service.ErrStatusNotInCatalog)
	})

	t.Run("type change resets an incompatible status", func(t *testing.T) {
		order := newOrder(t, domain.OrderTypeReadyMade)
		status := domain.StatusPaid
		_, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{Status: &status})
		require.NoError(t, err)

		orderType := domain.OrderTypeCustomMade
		updated, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{OrderType: &orderType})
		require.NoError(t, err)
		assert.Equal(t, domain.OrderTypeCustomMade, updated.OrderType)
		assert.Equal(t, domain.StatusNewRequest, updated.Status)

		history, err := svc.StatusHistory(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusNewRequest, history[0].ToStatus)
	})

	t.Run("type change keeps a shared terminal status", func(t *testing.T) {
		order := newOrder(t, domain.OrderTypeReadyMade)
		status := domain.StatusCompleted
		_, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{Status: &status})
		require.NoError(t, err)

		orderType := domain.OrderTypeCustomMade
		updated, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{OrderType: &orderType})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, updated.Status)
	})

	t.Run("closing date follows terminal transitions", func(t *testing.T) {
		order := newOrder(t, domain.OrderTypeReadyMade)

		completed := domain.StatusCompleted
		updated, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{Status: &completed})
		require.NoError(t, err)
		require.NotNil(t, updated.ClosingDate)

		// Reopening clears it again.
		reopened := domain.StatusInDelivery
		updated, err = svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{Status: &reopened})
		require.NoError(t, err)
		assert.Nil(t, updated.ClosingDate)
	})

	t.Run("clearing partial status drops the partial amount", func(t *testing.T) {
		order := newOrder(t, domain.OrderTypeReadyMade)
		amount := 2500.0
		partial := domain.PaymentStatusPartial
		_, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{
			PaymentStatus:        &partial,
			PartialPaymentAmount: &amount,
		})
		require.NoError(t, err)

		full := domain.PaymentStatusFullyPaid
		updated, err := svc.Update(ctx, order.ID, &domain.UpdateOrderRequest{PaymentStatus: &full})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusFullyPaid, updated.PaymentStatus)
		assert.Nil(t, updated.PartialPaymentAmount)
	})

	t.Run("unknown order returns not found", func(t *testing.T) {
		notes := "nobody home"
		_, err := svc.Update(ctx, 999999, &domain.UpdateOrderRequest{Notes: &notes})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestOrderService_Board(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createOrderService(db)
	contact := testutil.CreateTestContact(t, db, "Anna", "Berg")
	ctx := orderTestContext("manager-1", domain.RoleManager)

	order, err := svc.Create(ctx, &domain.CreateOrderRequest{
		OrderType: domain.OrderTypeReadyMade,
		ContactID: &contact.ID,
	})
	require.NoError(t, err)

	t.Run("board shows every catalog column including empty ones", func(t *testing.T) {
		boardDTO, err := svc.Board(ctx, domain.OrderTypeReadyMade)
		require.NoError(t, err)
		require.Len(t, boardDTO.Columns, len(domain.StatusesFor(domain.OrderTypeReadyMade)))

		assert.Equal(t, domain.StatusNew, boardDTO.Columns[0].Status)
		require.Len(t, boardDTO.Columns[0].OrderIDs, 1)
		assert.Equal(t, order.ID, boardDTO.Columns[0].OrderIDs[0])
		assert.Contains(t, boardDTO.Orders, order.ID)

		for _, column := range boardDTO.Columns[1:] {
			assert.Empty(t, column.OrderIDs)
		}
	})

	t.Run("move lands the card in the target column", func(t *testing.T) {
		boardDTO, err := svc.MoveOrder(ctx, domain.OrderTypeReadyMade, order.ID, &domain.MoveOrderRequest{
			Status: domain.StatusAwaitingConfirmation,
		})
		require.NoError(t, err)
		require.Len(t, boardDTO.Columns[1].OrderIDs, 1)
		assert.Empty(t, boardDTO.Columns[0].OrderIDs)

		// The move persisted.
		dto, err := svc.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAwaitingConfirmation, dto.Status)
	})

	t.Run("move to a foreign status is rejected", func(t *testing.T) {
		_, err := svc.MoveOrder(ctx, domain.OrderTypeReadyMade, order.ID, &domain.MoveOrderRequest{
			Status: domain.StatusInProduction,
		})
		assert.Error(t, err)
	})

	t.Run("move of an unknown order is rejected", func(t *testing.T) {
		_, err := svc.MoveOrder(ctx, domain.OrderTypeReadyMade, 424242, &domain.MoveOrderRequest{
			Status: domain.StatusAwaitingConfirmation,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestOrderService_RecordPayment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createOrderService(db)
	contact := testutil.CreateTestContact(t, db, "Erik", "Lund")
	ctx := orderTestContext("manager-1", domain.RoleManager)

	amount := 10000.0
	order, err := svc.Create(ctx, &domain.CreateOrderRequest{
		OrderType:   domain.OrderTypeReadyMade,
		ContactID:   &contact.ID,
		FinalAmount: &amount,
	})
	require.NoError(t, err)

	t.Run("partial payment accumulates", func(t *testing.T) {
		dto, err := svc.RecordPayment(ctx, order.ID, &domain.RecordPaymentRequest{Amount: 4000})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPartial, dto.PaymentStatus)
		require.NotNil(t, dto.PartialPaymentAmount)
		assert.InDelta(t, 4000, *dto.PartialPaymentAmount, 0.001)
	})

	t.Run("payment covering the final amount closes it out", func(t *testing.T) {
		dto, err := svc.RecordPayment(ctx, order.ID, &domain.RecordPaymentRequest{Amount: 6000})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusFullyPaid, dto.PaymentStatus)
		assert.Nil(t, dto.PartialPaymentAmount)
	})

	t.Run("fully paid order rejects further payments", func(t *testing.T) {
		_, err := svc.RecordPayment(ctx, order.ID, &domain.RecordPaymentRequest{Amount: 100})
		assert.ErrorIs(t, err, service.ErrConflict)
	})
}

func TestOrderService_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createOrderService(db)
	contact := testutil.CreateTestContact(t, db, "Nina", "Dahl")
	adminCtx := orderTestContext("admin-1", domain.RoleAdmin)
	managerCtx := orderTestContext("manager-1", domain.RoleManager)

	order, err := svc.Create(adminCtx, &domain.CreateOrderRequest{
		OrderType: domain.OrderTypeReadyMade,
		ContactID: &contact.ID,
	})
	require.NoError(t, err)

	t.Run("non-admin cannot delete", func(t *testing.T) {
		err := svc.Delete(managerCtx, order.ID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("admin delete removes order and trail", func(t *testing.T) {
		require.NoError(t, svc.Delete(adminCtx, order.ID))

		_, err := svc.GetByID(adminCtx, order.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestOrderService_NotifyStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createOrderService(db)
	contact := testutil.CreateTestContact(t, db, "Jens", "Vik")
	ctx := orderTestContext("manager-1", domain.RoleManager)

	_, err := svc.Create(ctx, &domain.CreateOrderRequest{
		OrderType: domain.OrderTypeReadyMade,
		ContactID: &contact.ID,
		ManagerID: "manager-1",
	})
	require.NoError(t, err)

	t.Run("fresh orders are not flagged", func(t *testing.T) {
		flagged, err := svc.NotifyStale(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Zero(t, flagged)
	})

	t.Run("stale orders notify their manager", func(t *testing.T) {
		flagged, err := svc.NotifyStale(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, flagged)

		var count int64
		require.NoError(t, db.Model(&domain.Notification{}).
			Where("user_id = ? AND type = ?", "manager-1", string(domain.NotificationTypeOrderStale)).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestOrderService_StatusCatalog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createOrderService(db)

	catalog, err := svc.StatusCatalog(domain.OrderTypeCustomMade)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderTypeCustomMade, catalog.OrderType)
	require.Len(t, catalog.Statuses, len(domain.StatusesFor(domain.OrderTypeCustomMade)))
	assert.NotEmpty(t, catalog.Statuses[0].Label)

	_, err = svc.StatusCatalog(domain.OrderType("bespoke"))
	assert.ErrorIs(t, err, domain.ErrUnknownOrderType)
}

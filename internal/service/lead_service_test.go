package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"github.com/woodline/crm-api/internal/testutil"
)

func createLeadService(db *gorm.DB) *service.LeadService {
	logger := zap.NewNop()
	leadRepo := repository.NewLeadRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	return service.NewLeadService(leadRepo, notificationRepo, createOrderService(db), logger)
}

func TestLeadService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := orderTestContext("sales-1", domain.RoleSales)

	t.Run("creates lead with defaults", func(t *testing.T) {
		dto, err := svc.Create(ctx, &domain.CreateLeadRequest{
			Name:   "Ola Nordmann",
			Phone:  "90011222",
			Source: "showroom",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusNew, dto.Status)
		assert.Equal(t, "showroom", dto.Source)
	})

	t.Run("assignment notifies the assignee", func(t *testing.T) {
		dto, err := svc.Create(ctx, &domain.CreateLeadRequest{
			Name:         "Kari Kunde",
			AssignedToID: "sales-2",
		})
		require.NoError(t, err)
		assert.Equal(t, "sales-2", dto.AssignedToID)

		var count int64
		require.NoError(t, db.Model(&domain.Notification{}).
			Where("user_id = ? AND type = ?", "sales-2", string(domain.NotificationTypeLeadAssigned)).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("viewer cannot create leads", func(t *testing.T) {
		viewerCtx := orderTestContext("viewer-1", domain.RoleViewer)
		_, err := svc.Create(viewerCtx, &domain.CreateLeadRequest{Name: "Nope"})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestLeadService_Convert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := orderTestContext("manager-1", domain.RoleManager)

	lead, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Bord til hytta"})
	require.NoError(t, err)

	t.Run("conversion creates an order and marks the lead", func(t *testing.T) {
		order, err := svc.Convert(ctx, lead.ID, &domain.ConvertLeadRequest{
			OrderType: domain.OrderTypeCustomMade,
		})
		require.NoError(t, err)
		require.NotNil(t, order.LeadID)
		assert.Equal(t, lead.ID, *order.LeadID)
		assert.Equal(t, domain.StatusNewRequest, order.Status)

		converted, err := svc.GetByID(ctx, lead.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LeadStatusConverted, converted.Status)
		require.NotNil(t, converted.ConvertedOrderID)
		assert.Equal(t, order.ID, *converted.ConvertedOrderID)
	})

	t.Run("converting twice is rejected", func(t *testing.T) {
		_, err := svc.Convert(ctx, lead.ID, &domain.ConvertLeadRequest{
			OrderType: domain.OrderTypeReadyMade,
		})
		assert.ErrorIs(t, err, service.ErrLeadAlreadyConverted)
	})

	t.Run("converted leads cannot be deleted", func(t *testing.T) {
		err := svc.Delete(ctx, lead.ID)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("unknown lead returns not found", func(t *testing.T) {
		_, err := svc.Convert(ctx, uuid.New(), &domain.ConvertLeadRequest{
			OrderType: domain.OrderTypeReadyMade,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestLeadService_CountByStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createLeadService(db)
	ctx := orderTestContext("manager-1", domain.RoleManager)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, &domain.CreateLeadRequest{Name: "Lead"})
		require.NoError(t, err)
	}

	counts, err := svc.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts[domain.LeadStatusNew])
}

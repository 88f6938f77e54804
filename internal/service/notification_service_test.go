package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
	"github.com/woodline/crm-api/internal/service"
	"github.com/woodline/crm-api/internal/testutil"
)

func createNotificationService(db *gorm.DB) *service.NotificationService {
	return service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())
}

func TestNotificationService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createNotificationService(db)

	t.Run("admin can create", func(t *testing.T) {
		ctx := orderTestContext("admin-1", domain.RoleAdmin)
		dto, err := svc.Create(ctx, &domain.CreateNotificationRequest{
			UserID:  "sales-1",
			Type:    domain.NotificationTypeTaskAssigned,
			Title:   "Heads up",
			Message: "Check the new task",
		})
		require.NoError(t, err)
		assert.Equal(t, "sales-1", dto.UserID)
		assert.False(t, dto.Read)
	})

	t.Run("non-admin cannot create", func(t *testing.T) {
		ctx := orderTestContext("sales-1", domain.RoleSales)
		_, err := svc.Create(ctx, &domain.CreateNotificationRequest{
			UserID:  "sales-2",
			Type:    domain.NotificationTypeTaskAssigned,
			Title:   "Nope",
			Message: "Nope",
		})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestNotificationService_ReadFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createNotificationService(db)
	adminCtx := orderTestContext("admin-1", domain.RoleAdmin)
	ownerCtx := orderTestContext("sales-1", domain.RoleSales)

	dto, err := svc.Create(adminCtx, &domain.CreateNotificationRequest{
		UserID:  "sales-1",
		Type:    domain.NotificationTypeOrderStatusChanged,
		Title:   "Order moved",
		Message: "Order RM-2026-001 moved to Paid",
	})
	require.NoError(t, err)

	t.Run("owner sees notification and unread count", func(t *testing.T) {
		list, total, err := svc.ListMine(ownerCtx, 1, 20, false, "")
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, list, 1)

		count, err := svc.CountUnread(ownerCtx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("someone else cannot mark it read", func(t *testing.T) {
		otherCtx := orderTestContext("sales-2", domain.RoleSales)
		err := svc.MarkAsRead(otherCtx, dto.ID)
		assert.ErrorIs(t, err, service.ErrNotificationNotOwned)
	})

	t.Run("owner marks it read", func(t *testing.T) {
		require.NoError(t, svc.MarkAsRead(ownerCtx, dto.ID))

		count, err := svc.CountUnread(ownerCtx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("unread filter hides read notifications", func(t *testing.T) {
		list, _, err := svc.ListMine(ownerCtx, 1, 20, true, "")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createNotificationService(db)
	adminCtx := orderTestContext("admin-1", domain.RoleAdmin)
	ownerCtx := orderTestContext("sales-1", domain.RoleSales)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(adminCtx, &domain.CreateNotificationRequest{
			UserID:  "sales-1",
			Type:    domain.NotificationTypeTaskAssigned,
			Title:   "Task",
			Message: "New task",
		})
		require.NoError(t, err)
	}

	require.NoError(t, svc.MarkAllAsRead(ownerCtx))

	count, err := svc.CountUnread(ownerCtx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_PurgeOlderThan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createNotificationService(db)

	old := &domain.Notification{
		UserID:  "sales-1",
		Type:    string(domain.NotificationTypeTaskAssigned),
		Title:   "Old",
		Message: "Old news",
		Read:    true,
	}
	require.NoError(t, db.Create(old).Error)
	require.NoError(t, db.Model(old).Update("created_at", time.Now().Add(-120*24*time.Hour)).Error)

	fresh := &domain.Notification{
		UserID:  "sales-1",
		Type:    string(domain.NotificationTypeTaskAssigned),
		Title:   "Fresh",
		Message: "Recent",
	}
	require.NoError(t, db.Create(fresh).Error)

	deleted, err := svc.PurgeOlderThan(context.Background(), time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

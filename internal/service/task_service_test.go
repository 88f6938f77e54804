package service_test

import (
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

func createTaskService(db *gorm.DB) *service.TaskService {
	logger := zap.NewNop()
	return service.NewTaskService(
		repository.NewTaskRepository(db),
		repository.NewOrderRepository(db),
		repository.NewLeadRepository(db),
		repository.NewNotificationRepository(db),
		logger,
	)
}

func TestTaskService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createTaskService(db)
	ctx := orderTestContext("sales-1", domain.RoleSales)

	t.Run("creates open task with due date", func(t *testing.T) {
		due := "2026-09-15"
		dto, err := svc.Create(ctx, &domain.CreateTaskRequest{
			Title:   "Call about the delivery",
			DueDate: &due,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusOpen, dto.Status)
		require.NotNil(t, dto.DueDate)
		assert.Equal(t, "sales-1", dto.CreatedByID)
	})

	t.Run("rejects malformed due date", func(t *testing.T) {
		due := "next tuesday"
		_, err := svc.Create(ctx, &domain.CreateTaskRequest{
			Title:   "Bad date",
			DueDate: &due,
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("rejects task against unknown order", func(t *testing.T) {
		orderID := uint(987654)
		_, err := svc.Create(ctx, &domain.CreateTaskRequest{
			Title:   "Ghost order",
			OrderID: &orderID,
		})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("assignment notifies the assignee", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.CreateTaskRequest{
			Title:        "Measurements",
			AssignedToID: "sales-2",
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&domain.Notification{}).
			Where("user_id = ? AND type = ?", "sales-2", string(domain.NotificationTypeTaskAssigned)).
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestTaskService_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createTaskService(db)
	ctx := orderTestContext("sales-1", domain.RoleSales)

	dto, err := svc.Create(ctx, &domain.CreateTaskRequest{Title: "Order fittings"})
	require.NoError(t, err)

	t.Run("completing sets completed at", func(t *testing.T) {
		done := domain.TaskStatusDone
		updated, err := svc.Update(ctx, dto.ID, &domain.UpdateTaskRequest{Status: &done})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusDone, updated.Status)
		assert.NotNil(t, updated.CompletedAt)
	})

	t.Run("reopening clears completed at", func(t *testing.T) {
		open := domain.TaskStatusOpen
		updated, err := svc.Update(ctx, dto.ID, &domain.UpdateTaskRequest{Status: &open})
		require.NoError(t, err)
		assert.Nil(t, updated.CompletedAt)
	})
}

func TestTaskService_NotifyOverdue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createTaskService(db)
	ctx := orderTestContext("sales-1", domain.RoleSales)

	past := time.Now().Add(-48 * time.Hour).Format("2006-01-02")
	_, err := svc.Create(ctx, &domain.CreateTaskRequest{
		Title:        "Forgotten follow-up",
		DueDate:      &past,
		AssignedToID: "sales-2",
	})
	require.NoError(t, err)

	future := time.Now().Add(72 * time.Hour).Format("2006-01-02")
	_, err = svc.Create(ctx, &domain.CreateTaskRequest{
		Title:        "Plenty of time",
		DueDate:      &future,
		AssignedToID: "sales-2",
	})
	require.NoError(t, err)

	flagged, err := svc.NotifyOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, flagged)

	var count int64
	require.NoError(t, db.Model(&domain.Notification{}).
		Where("type = ?", string(domain.NotificationTypeTaskOverdue)).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

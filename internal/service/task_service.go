package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/mapper"
	"github.com/woodline/crm-api/internal/repository"
)

// TaskService manages to-do items tied to orders and leads.
type TaskService struct {
	taskRepo         *repository.TaskRepository
	orderRepo        *repository.OrderRepository
	leadRepo         *repository.LeadRepository
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	orderRepo *repository.OrderRepository,
	leadRepo *repository.LeadRepository,
	notificationRepo *repository.NotificationRepository,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:         taskRepo,
		orderRepo:        orderRepo,
		leadRepo:         leadRepo,
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// Create creates a task, optionally linked to an order or a lead.
func (s *TaskService) Create(ctx context.Context, req *domain.CreateTaskRequest) (*domain.TaskDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}

	if req.OrderID != nil {
		if _, err := s.orderRepo.GetByID(ctx, *req.OrderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: order %d", ErrNotFound, *req.OrderID)
			}
			return nil, fmt.Errorf("failed to verify order: %w", err)
		}
	}
	if req.LeadID != nil {
		if _, err := s.leadRepo.GetByID(ctx, *req.LeadID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: lead %s", ErrNotFound, *req.LeadID)
			}
			return nil, fmt.Errorf("failed to verify lead: %w", err)
		}
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:        req.Title,
		Description:  req.Description,
		Status:       domain.TaskStatusOpen,
		DueDate:      dueDate,
		AssignedToID: req.AssignedToID,
		CreatedByID:  userCtx.UserID,
		OrderID:      req.OrderID,
		LeadID:       req.LeadID,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if task.AssignedToID != "" && task.AssignedToID != userCtx.UserID {
		s.notifyAssigned(ctx, task)
	}
	return s.GetByID(ctx, task.ID)
}

// GetByID returns one task.
func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskDTO, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	dto := mapper.ToTaskDTO(task)
	return &dto, nil
}

// List returns tasks with filters and pagination.
func (s *TaskService) List(ctx context.Context, page, pageSize int, filters *repository.TaskFilters) ([]domain.TaskDTO, int64, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	tasks, total, err := s.taskRepo.ListWithFilters(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	dtos := make([]domain.TaskDTO, len(tasks))
	for i := range tasks {
		dtos[i] = mapper.ToTaskDTO(&tasks[i])
	}
	return dtos, total, nil
}

// Update applies a form edit to a task. CompletedAt follows the status.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTaskRequest) (*domain.TaskDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	assigneeChanged := false
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: task status %q", ErrInvalidInput, *req.Status)
		}
		if *req.Status == domain.TaskStatusDone && task.Status != domain.TaskStatusDone {
			now := time.Now()
			task.CompletedAt = &now
		}
		if *req.Status != domain.TaskStatusDone {
			task.CompletedAt = nil
		}
		task.Status = *req.Status
	}
	if req.DueDate != nil {
		dueDate, err := parseDate(req.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = dueDate
	}
	if req.AssignedToID != nil && *req.AssignedToID != task.AssignedToID {
		task.AssignedToID = *req.AssignedToID
		task.AssignedTo = nil
		assigneeChanged = true
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if assigneeChanged && task.AssignedToID != "" && task.AssignedToID != userCtx.UserID {
		s.notifyAssigned(ctx, task)
	}
	return s.GetByID(ctx, task.ID)
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return ErrPermissionDenied
	}
	if _, err := s.taskRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get task: %w", err)
	}
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// NotifyOverdue creates task_overdue notifications for every open task past
// its due date. Called by the scheduled job; returns how many were flagged.
func (s *TaskService) NotifyOverdue(ctx context.Context, asOf time.Time) (int, error) {
	tasks, err := s.taskRepo.ListOverdue(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	flagged := 0
	for i := range tasks {
		task := &tasks[i]
		if task.AssignedToID == "" {
			continue
		}
		notification := &domain.Notification{
			UserID:     task.AssignedToID,
			Type:       string(domain.NotificationTypeTaskOverdue),
			Title:      "Task overdue",
			Message:    fmt.Sprintf("Task %q is past its due date.", task.Title),
			EntityID:   task.ID.String(),
			EntityType: "task",
		}
		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			s.logger.Error("failed to create overdue notification",
				zap.String("task_id", task.ID.String()),
				zap.Error(err))
			continue
		}
		flagged++
	}
	return flagged, nil
}

func (s *TaskService) notifyAssigned(ctx context.Context, task *domain.Task) {
	notification := &domain.Notification{
		UserID:     task.AssignedToID,
		Type:       string(domain.NotificationTypeTaskAssigned),
		Title:      "Task assigned to you",
		Message:    fmt.Sprintf("Task %q was assigned to you.", task.Title),
		EntityID:   task.ID.String(),
		EntityType: "task",
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to create task-assigned notification",
			zap.String("task_id", task.ID.String()),
			zap.Error(err))
	}
}

// parseDate accepts an ISO 8601 timestamp or a bare date.
func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *value); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid date %q", ErrInvalidInput, *value)
}

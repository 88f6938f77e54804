package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/domain"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).
		Preload("AssignedTo").
		First(&task, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// TaskFilters holds filters for listing tasks
type TaskFilters struct {
	Status       *domain.TaskStatus
	AssignedToID string
	OrderID      *uint
	LeadID       *uuid.UUID
	OverdueOnly  bool
}

// ListWithFilters returns tasks with filters and pagination
func (r *TaskRepository) ListWithFilters(ctx context.Context, page, pageSize int, filters *TaskFilters) ([]domain.Task, int64, error) {
	var tasks []domain.Task
	var total int64

	page, pageSize = NormalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.Task{})

	if filters != nil {
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.AssignedToID != "" {
			query = query.Where("assigned_to_id = ?", filters.AssignedToID)
		}
		if filters.OrderID != nil {
			query = query.Where("order_id = ?", *filters.OrderID)
		}
		if filters.LeadID != nil {
			query = query.Where("lead_id = ?", *filters.LeadID)
		}
		if filters.OverdueOnly {
			query = query.
				Where("due_date < ?", time.Now()).
				Where("status IN ?", []domain.TaskStatus{domain.TaskStatusOpen, domain.TaskStatusInProgress})
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("AssignedTo").
		Order("due_date ASC NULLS LAST, created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&tasks).Error

	return tasks, total, err
}

func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ?", id).Error
}

// ListOverdue returns open tasks past their due date. The reminder job
// notifies assignees.
func (r *TaskRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("due_date < ?", asOf).
		Where("status IN ?", []domain.TaskStatus{domain.TaskStatusOpen, domain.TaskStatusInProgress}).
		Order("due_date ASC").
		Find(&tasks).Error
	return tasks, err
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/domain"
)

type OrderStatusHistoryRepository struct {
	db *gorm.DB
}

func NewOrderStatusHistoryRepository(db *gorm.DB) *OrderStatusHistoryRepository {
	return &OrderStatusHistoryRepository{db: db}
}

// Create records a new status transition
func (r *OrderStatusHistoryRepository) Create(ctx context.Context, history *domain.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// GetByOrderID returns all status history for an order, newest first
func (r *OrderStatusHistoryRepository) GetByOrderID(ctx context.Context, orderID uint) ([]domain.OrderStatusHistory, error) {
	var history []domain.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at DESC").
		Find(&history).Error
	return history, err
}

// GetLatestByOrderID returns the most recent status change for an order
func (r *OrderStatusHistoryRepository) GetLatestByOrderID(ctx context.Context, orderID uint) (*domain.OrderStatusHistory, error) {
	var history domain.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at DESC").
		First(&history).Error
	if err != nil {
		return nil, err
	}
	return &history, nil
}

// CountTransitionsToStatus returns how many orders entered a status within a
// date range. Used by the finance summary for throughput figures.
func (r *OrderStatusHistoryRepository) CountTransitionsToStatus(ctx context.Context, status domain.OrderStatus, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.OrderStatusHistory{}).
		Where("to_status = ?", status).
		Where("changed_at >= ? AND changed_at <= ?", from, to).
		Count(&count).Error
	return count, err
}

// RecordTransition is a convenience method to create a status history record
func (r *OrderStatusHistoryRepository) RecordTransition(
	ctx context.Context,
	orderID uint,
	fromStatus *domain.OrderStatus,
	toStatus domain.OrderStatus,
	changedByID string,
	changedByName string,
	note string,
) error {
	history := &domain.OrderStatusHistory{
		OrderID:       orderID,
		FromStatus:    fromStatus,
		ToStatus:      toStatus,
		ChangedByID:   changedByID,
		ChangedByName: changedByName,
		Note:          note,
		ChangedAt:     time.Now(),
	}
	return r.Create(ctx, history)
}

// DeleteByOrderID removes all history for an order (used when an admin
// deletes the order)
func (r *OrderStatusHistoryRepository) DeleteByOrderID(ctx context.Context, orderID uint) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&domain.OrderStatusHistory{}).Error
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/domain"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Preload("Contact").
		Preload("Lead").
		Preload("ClientCompany").
		Preload("Manager").
		Preload("Manufacturer").
		Preload("Files").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByType returns all orders of one type with the associations the board
// cards denormalize. The board tolerates zero rows; an empty slice is not an
// error.
func (r *OrderRepository) ListByType(ctx context.Context, orderType domain.OrderType) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Preload("Contact").
		Preload("Manager").
		Where("order_type = ?", orderType).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

// OrderFilters holds filters for listing orders
type OrderFilters struct {
	Type          *domain.OrderType
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
	ManagerID     string
	Search        string
	OpenOnly      bool
}

// OrderSortOption defines sort options for orders
type OrderSortOption string

const (
	OrderSortByCreatedDesc OrderSortOption = "created_desc"
	OrderSortByCreatedAsc  OrderSortOption = "created_asc"
	OrderSortByAmountDesc  OrderSortOption = "amount_desc"
	OrderSortByNumberAsc   OrderSortOption = "number_asc"
)

// ListWithFilters returns orders with filters and pagination
func (r *OrderRepository) ListWithFilters(ctx context.Context, page, pageSize int, filters *OrderFilters, sortBy OrderSortOption) ([]domain.Order, int64, error) {
	var orders []domain.Order
	var total int64

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.Order{})

	if filters != nil {
		if filters.Type != nil {
			query = query.Where("order_type = ?", *filters.Type)
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		}
		if filters.PaymentStatus != nil {
			query = query.Where("payment_status = ?", *filters.PaymentStatus)
		}
		if filters.ManagerID != "" {
			query = query.Where("manager_id = ?", filters.ManagerID)
		}
		if filters.OpenOnly {
			query = query.Where("status NOT IN ?", []domain.OrderStatus{domain.StatusCompleted, domain.StatusCancelled})
		}
		if filters.Search != "" {
			pattern := "%" + filters.Search + "%"
			query = query.Where(
				"LOWER(number) LIKE LOWER(?) OR LOWER(delivery_address) LIKE LOWER(?) OR LOWER(notes) LIKE LOWER(?)",
				pattern, pattern, pattern,
			)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sortBy {
	case OrderSortByCreatedAsc:
		query = query.Order("created_at ASC")
	case OrderSortByAmountDesc:
		query = query.Order("final_amount DESC NULLS LAST")
	case OrderSortByNumberAsc:
		query = query.Order("number ASC")
	default:
		query = query.Order("created_at DESC")
	}

	err := query.
		Preload("Contact").
		Preload("Manager").
		Offset(offset).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

// UpdateStatus sets the status and closing date in one statement. Returns
// gorm.ErrRecordNotFound when the order no longer exists, so callers can
// tell a vanished order apart from a backend failure.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, status domain.OrderStatus, closingDate *time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"closing_date": closingDate,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdatePayment sets the payment fields in one statement.
func (r *OrderRepository) UpdatePayment(ctx context.Context, id uint, status domain.PaymentStatus, partialAmount *float64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status":         status,
			"partial_payment_amount": partialAmount,
			"updated_at":             time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Order{}, "id = ?", id).Error
}

// GetByNumber finds an order by its human-readable number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).First(&order, "number = ?", number).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// PaymentAggregate is one payment-status bucket of the finance summary.
type PaymentAggregate struct {
	PaymentStatus domain.PaymentStatus
	Count         int64
	TotalAmount   float64
	PartialAmount float64
}

// AggregatePayments groups orders by payment status with summed amounts.
func (r *OrderRepository) AggregatePayments(ctx context.Context) ([]PaymentAggregate, error) {
	var rows []PaymentAggregate
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Select("payment_status, COUNT(*) as count, COALESCE(SUM(final_amount), 0) as total_amount, COALESCE(SUM(partial_payment_amount), 0) as partial_amount").
		Group("payment_status").
		Scan(&rows).Error
	return rows, err
}

// ListCompletedSince returns completed orders closed on or after the cutoff.
// The finance service buckets them into monthly revenue.
func (r *OrderRepository) ListCompletedSince(ctx context.Context, since time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND closing_date >= ?", domain.StatusCompleted, since).
		Order("closing_date ASC").
		Find(&orders).Error
	return orders, err
}

// CountOpen counts orders not in a terminal status.
func (r *OrderRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("status NOT IN ?", []domain.OrderStatus{domain.StatusCompleted, domain.StatusCancelled}).
		Count(&count).Error
	return count, err
}

// ListStale returns open orders that have not been touched since the cutoff.
// The stale-order job notifies their managers.
func (r *OrderRepository) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []domain.OrderStatus{domain.StatusCompleted, domain.StatusCancelled}).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Find(&orders).Error
	return orders, err
}

// ListAwaitingPayment returns orders whose payment the accounting sync may
// settle: not refunded, not fully paid, with an order number to match on.
func (r *OrderRepository) ListAwaitingPayment(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Where("payment_status IN ?", []domain.PaymentStatus{domain.PaymentStatusUnpaid, domain.PaymentStatusPartial}).
		Where("number <> ''").
		Find(&orders).Error
	return orders, err
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/mapper"
	"github.com/woodline/crm-api/internal/repository"
)

// BoardStore adapts the order repositories to the board.Store interface. The
// controller stays transport- and ORM-agnostic; this is the only place where
// board moves touch gorm.
type BoardStore struct {
	orderRepo   *repository.OrderRepository
	historyRepo *repository.OrderStatusHistoryRepository
	logger      *zap.Logger
}

// NewBoardStore creates the persistence adapter for board controllers.
func NewBoardStore(
	orderRepo *repository.OrderRepository,
	historyRepo *repository.OrderStatusHistoryRepository,
	logger *zap.Logger,
) *BoardStore {
	return &BoardStore{
		orderRepo:   orderRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// ListCards returns the cards for all orders of the given type.
func (s *BoardStore) ListCards(ctx context.Context, orderType domain.OrderType) ([]domain.OrderCardDTO, error) {
	orders, err := s.orderRepo.ListByType(ctx, orderType)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for board: %w", err)
	}
	cards := make([]domain.OrderCardDTO, len(orders))
	for i := range orders {
		cards[i] = mapper.ToOrderCardDTO(&orders[i])
	}
	return cards, nil
}

// UpdateStatus persists a board move: the status column is updated, the
// closing date maintained, and a history entry recorded under the session's
// identity. A vanished order is reported as board.ErrOrderNotFound so the
// controller drops the card instead of rolling back.
func (s *BoardStore) UpdateStatus(ctx context.Context, session board.Session, orderID uint, status domain.OrderStatus, note string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("order %d: %w", orderID, board.ErrOrderNotFound)
		}
		return fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if !status.ValidFor(order.Type) {
		return fmt.Errorf("%w: %s for %s", ErrStatusNotInCatalog, status, order.Type)
	}

	closingDate := order.ClosingDate
	if status.IsTerminal() {
		if !order.Status.IsTerminal() {
			now := time.Now()
			closingDate = &now
		}
	} else {
		closingDate = nil
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status, closingDate); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("order %d: %w", orderID, board.ErrOrderNotFound)
		}
		return fmt.Errorf("failed to update order %d status: %w", orderID, err)
	}

	fromStatus := order.Status
	if err := s.historyRepo.RecordTransition(ctx, orderID, &fromStatus, status, session.UserID, session.DisplayName, note); err != nil {
		// The move itself succeeded; a missing audit row is not worth a
		// rollback on the board.
		s.logger.Error("failed to record status transition",
			zap.Uint("order_id", orderID),
			zap.String("to", string(status)),
			zap.Error(err))
	}
	return nil
}

// BoardNotifier surfaces failed board moves as in-app notifications to the
// user whose drag was rolled back.
type BoardNotifier struct {
	notificationRepo *repository.NotificationRepository
	logger           *zap.Logger
}

// NewBoardNotifier creates the notifier wired into board controllers.
func NewBoardNotifier(notificationRepo *repository.NotificationRepository, logger *zap.Logger) *BoardNotifier {
	return &BoardNotifier{notificationRepo: notificationRepo, logger: logger}
}

// MoveFailed records an order_move_failed notification for the session user.
func (n *BoardNotifier) MoveFailed(session board.Session, orderID uint, from, to domain.OrderStatus, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fromLabel, toLabel := string(from), string(to)
	if meta, ok := domain.MetaFor(from); ok {
		fromLabel = meta.Label
	}
	if meta, ok := domain.MetaFor(to); ok {
		toLabel = meta.Label
	}

	notification := &domain.Notification{
		UserID:     session.UserID,
		Type:       string(domain.NotificationTypeOrderMoveFailed),
		Title:      "Order move failed",
		Message:    fmt.Sprintf("Order %d could not be moved from %s to %s and was returned to its column.", orderID, fromLabel, toLabel),
		EntityID:   fmt.Sprintf("%d", orderID),
		EntityType: "order",
	}
	if createErr := n.notificationRepo.Create(ctx, notification); createErr != nil {
		n.logger.Error("failed to create move-failed notification",
			zap.Uint("order_id", orderID),
			zap.Error(createErr))
	}
}

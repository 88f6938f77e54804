package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/accounting"
	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
)

// defaultSyncLookback bounds the first sync run after startup so we do not
// replay the accounting system's whole history.
const defaultSyncLookback = 30 * 24 * time.Hour

// InvoiceSource is the slice of the accounting client the sync reads from.
type InvoiceSource interface {
	IsEnabled() bool
	ListSettledInvoices(ctx context.Context, since time.Time) ([]accounting.SettledInvoice, error)
}

// PaymentSyncService mirrors settled invoices from the accounting system onto
// order payment state. It runs as a scheduled job with no user session, so it
// works against the repositories directly instead of going through the
// permission-checked order operations.
type PaymentSyncService struct {
	client           InvoiceSource
	orderRepo        *repository.OrderRepository
	notificationRepo *repository.NotificationRepository
	hub              *board.Hub
	logger           *zap.Logger

	mu         sync.Mutex
	lastSynced time.Time
}

// NewPaymentSyncService creates a new payment sync service.
// The client may be nil when the accounting mirror is disabled.
func NewPaymentSyncService(
	client InvoiceSource,
	orderRepo *repository.OrderRepository,
	notificationRepo *repository.NotificationRepository,
	hub *board.Hub,
	logger *zap.Logger,
) *PaymentSyncService {
	return &PaymentSyncService{
		client:           client,
		orderRepo:        orderRepo,
		notificationRepo: notificationRepo,
		hub:              hub,
		logger:           logger,
	}
}

// SyncSettledPayments pulls invoices settled since the last run and applies
// them to the matching orders. Invoices whose order number is unknown are
// skipped, not failed: the accounting system also carries invoices for work
// that never went through the CRM.
func (s *PaymentSyncService) SyncSettledPayments(ctx context.Context) (applied, skipped, failed int, err error) {
	if s.client == nil || !s.client.IsEnabled() {
		return 0, 0, 0, nil
	}

	s.mu.Lock()
	since := s.lastSynced
	s.mu.Unlock()
	if since.IsZero() {
		since = time.Now().Add(-defaultSyncLookback)
	}

	invoices, err := s.client.ListSettledInvoices(ctx, since)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to list settled invoices: %w", err)
	}

	var newest time.Time
	touched := make(map[domain.OrderType]struct{})
	for i := range invoices {
		inv := &invoices[i]
		if inv.SettledAt.After(newest) {
			newest = inv.SettledAt
		}

		order, err := s.orderRepo.GetByNumber(ctx, inv.OrderNumber)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				skipped++
				continue
			}
			s.logger.Error("failed to look up order for invoice",
				zap.String("invoice", inv.InvoiceNumber),
				zap.String("order_number", inv.OrderNumber),
				zap.Error(err))
			failed++
			continue
		}

		if err := s.applyInvoice(ctx, order, inv); err != nil {
			if errors.Is(err, errInvoiceAlreadySettled) {
				skipped++
				continue
			}
			s.logger.Error("failed to apply settled invoice",
				zap.String("invoice", inv.InvoiceNumber),
				zap.String("order_number", inv.OrderNumber),
				zap.Error(err))
			failed++
			continue
		}
		applied++
		touched[order.Type] = struct{}{}
	}

	// Applied payments changed card data behind the live boards' back.
	for orderType := range touched {
		s.hub.Invalidate(orderType)
	}

	if failed == 0 && !newest.IsZero() {
		s.mu.Lock()
		s.lastSynced = newest
		s.mu.Unlock()
	}

	return applied, skipped, failed, nil
}

var errInvoiceAlreadySettled = errors.New("order payment already settled")

func (s *PaymentSyncService) applyInvoice(ctx context.Context, order *domain.Order, inv *accounting.SettledInvoice) error {
	if inv.Refunded {
		if order.PaymentStatus == domain.PaymentStatusRefunded {
			return errInvoiceAlreadySettled
		}
		if err := s.orderRepo.UpdatePayment(ctx, order.ID, domain.PaymentStatusRefunded, nil); err != nil {
			return fmt.Errorf("failed to mark order refunded: %w", err)
		}
		s.notifyManager(ctx, order,
			"Payment refunded",
			fmt.Sprintf("Invoice %s for order %s was refunded in accounting.", inv.InvoiceNumber, order.Number))
		return nil
	}

	switch order.PaymentStatus {
	case domain.PaymentStatusFullyPaid, domain.PaymentStatusRefunded:
		return errInvoiceAlreadySettled
	}

	paid := inv.AmountPaid
	if order.PartialPaymentAmount != nil {
		paid += *order.PartialPaymentAmount
	}

	status := domain.PaymentStatusPartial
	partial := &paid
	if order.FinalAmount != nil && paid >= *order.FinalAmount {
		status = domain.PaymentStatusFullyPaid
		partial = nil
	}

	if err := s.orderRepo.UpdatePayment(ctx, order.ID, status, partial); err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}

	if status == domain.PaymentStatusFullyPaid {
		s.notifyManager(ctx, order,
			"Payment received",
			fmt.Sprintf("Order %s is fully paid (invoice %s, %.2f %s).",
				order.Number, inv.InvoiceNumber, inv.AmountPaid, inv.Currency))
	} else {
		s.notifyManager(ctx, order,
			"Payment received",
			fmt.Sprintf("Partial payment of %.2f %s received for order %s (invoice %s).",
				inv.AmountPaid, inv.Currency, order.Number, inv.InvoiceNumber))
	}

	s.logger.Info("settled invoice applied",
		zap.String("invoice", inv.InvoiceNumber),
		zap.String("order_number", order.Number),
		zap.String("payment_status", string(status)))
	return nil
}

func (s *PaymentSyncService) notifyManager(ctx context.Context, order *domain.Order, title, message string) {
	if order.ManagerID == "" {
		return
	}
	notification := &domain.Notification{
		UserID:     order.ManagerID,
		Type:       string(domain.NotificationTypePaymentReceived),
		Title:      title,
		Message:    message,
		EntityID:   fmt.Sprintf("%d", order.ID),
		EntityType: "order",
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to create payment notification",
			zap.String("user_id", order.ManagerID),
			zap.Error(err))
	}
}

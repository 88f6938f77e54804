package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/board"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/mapper"
	"github.com/woodline/crm-api/internal/repository"
)

// OrderService owns the order lifecycle: creation with generated numbers,
// form edits, the status workflow with its audit trail, and the Kanban board.
type OrderService struct {
	orderRepo        *repository.OrderRepository
	historyRepo      *repository.OrderStatusHistoryRepository
	contactRepo      *repository.ContactRepository
	leadRepo         *repository.LeadRepository
	companyRepo      *repository.ClientCompanyRepository
	supplierRepo     *repository.SupplierRepository
	userRepo         *repository.UserRepository
	notificationRepo *repository.NotificationRepository
	numberSeqService *NumberSequenceService
	hub              *board.Hub
	logger           *zap.Logger
}

func NewOrderService(
	orderRepo *repository.OrderRepository,
	historyRepo *repository.OrderStatusHistoryRepository,
	contactRepo *repository.ContactRepository,
	leadRepo *repository.LeadRepository,
	companyRepo *repository.ClientCompanyRepository,
	supplierRepo *repository.SupplierRepository,
	userRepo *repository.UserRepository,
	notificationRepo *repository.NotificationRepository,
	numberSeqService *NumberSequenceService,
	hub *board.Hub,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:        orderRepo,
		historyRepo:      historyRepo,
		contactRepo:      contactRepo,
		leadRepo:         leadRepo,
		companyRepo:      companyRepo,
		supplierRepo:     supplierRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		numberSeqService: numberSeqService,
		hub:              hub,
		logger:           logger,
	}
}

// requireEditor returns the acting user, or ErrPermissionDenied when the
// role is read-only.
func (s *OrderService) requireEditor(ctx context.Context) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}
	return userCtx, nil
}

// Create creates a new order. The order number is generated from the
// per-type sequence, the status defaults to the first catalog entry, and the
// creation is recorded on the status trail.
func (s *OrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.OrderDTO, error) {
	userCtx, err := s.requireEditor(ctx)
	if err != nil {
		return nil, err
	}

	if !req.OrderType.IsValid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOrderType, req.OrderType)
	}

	status := domain.DefaultStatus(req.OrderType)
	if req.Status != nil {
		if !req.Status.ValidFor(req.OrderType) {
			return nil, fmt.Errorf("%w: %s for %s", ErrStatusNotInCatalog, *req.Status, req.OrderType)
		}
		status = *req.Status
	}

	if req.ContactID == nil && req.LeadID == nil {
		return nil, ErrMissingContactOrLead
	}
	if req.ContactID != nil {
		if _, err := s.contactRepo.GetByID(ctx, *req.ContactID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: contact", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify contact: %w", err)
		}
	}
	if req.LeadID != nil {
		if _, err := s.leadRepo.GetByID(ctx, *req.LeadID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: lead", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify lead: %w", err)
		}
	}
	if req.ClientCompanyID != nil {
		if _, err := s.companyRepo.GetByID(ctx, *req.ClientCompanyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client company", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify client company: %w", err)
		}
	}

	if req.ManufacturerID != nil {
		if req.OrderType != domain.OrderTypeCustomMade {
			return nil, ErrManufacturerNotAllowed
		}
		if _, err := s.supplierRepo.GetByID(ctx, *req.ManufacturerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: manufacturer", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify manufacturer: %w", err)
		}
	}

	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.PaymentStatusUnpaid
	}
	if err := validatePayment(paymentStatus, req.PartialPaymentAmount); err != nil {
		return nil, err
	}

	managerID := req.ManagerID
	if managerID == "" {
		managerID = userCtx.UserID
	}

	number, err := s.numberSeqService.GenerateOrderNumber(ctx, req.OrderType)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		Number:               number,
		Type:                 req.OrderType,
		Status:               status,
		ContactID:            req.ContactID,
		LeadID:               req.LeadID,
		ClientCompanyID:      req.ClientCompanyID,
		ManagerID:            managerID,
		ManufacturerID:       req.ManufacturerID,
		FinalAmount:          req.FinalAmount,
		PaymentStatus:        paymentStatus,
		PartialPaymentAmount: req.PartialPaymentAmount,
		DeliveryAddress:      req.DeliveryAddress,
		Notes:                req.Notes,
	}
	if status.IsTerminal() {
		now := time.Now()
		order.ClosingDate = &now
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.historyRepo.RecordTransition(ctx, order.ID, nil, status, userCtx.UserID, userCtx.DisplayName, "order created"); err != nil {
		s.logger.Error("failed to record creation on status trail",
			zap.Uint("order_id", order.ID), zap.Error(err))
	}

	s.hub.Invalidate(order.Type)
	s.logger.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.String("number", order.Number),
		zap.String("order_type", string(order.Type)),
		zap.String("created_by", userCtx.UserID))

	return s.GetByID(ctx, order.ID)
}

// GetByID returns one order with its associations resolved.
func (s *OrderService) GetByID(ctx context.Context, id uint) (*domain.OrderDTO, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	dto := mapper.ToOrderDTO(order)
	return &dto, nil
}

// List returns orders with filters and pagination.
func (s *OrderService) List(ctx context.Context, page, pageSize int, filters *repository.OrderFilters, sortBy repository.OrderSortOption) ([]domain.OrderDTO, int64, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	orders, total, err := s.orderRepo.ListWithFilters(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	dtos := make([]domain.OrderDTO, len(orders))
	for i := range orders {
		dtos[i] = mapper.ToOrderDTO(&orders[i])
	}
	return dtos, total, nil
}

// Update applies a form edit. Changing the order type re-validates the
// status against the new catalog and falls back to its first entry when the
// current status does not exist there; the correction lands on the status
// trail like any other transition. Closing date follows the status: set on
// entering a terminal status, cleared when the order is reopened.
func (s *OrderService) Update(ctx context.Context, id uint, req *domain.UpdateOrderRequest) (*domain.OrderDTO, error) {
	userCtx, err := s.requireEditor(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	oldType := order.Type
	oldStatus := order.Status
	transitionNote := ""

	if req.OrderType != nil && *req.OrderType != order.Type {
		if !req.OrderType.IsValid() {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOrderType, *req.OrderType)
		}
		order.Type = *req.OrderType
	}

	switch {
	case req.Status != nil:
		if !req.Status.ValidFor(order.Type) {
			return nil, fmt.Errorf("%w: %s for %s", ErrStatusNotInCatalog, *req.Status, order.Type)
		}
		order.Status = *req.Status
	case !order.Status.ValidFor(order.Type):
		// Type changed under a status the new catalog does not know.
		order.Status = domain.DefaultStatus(order.Type)
		transitionNote = fmt.Sprintf("status reset on change to %s", order.Type)
	}

	if req.ContactID != nil {
		if _, err := s.contactRepo.GetByID(ctx, *req.ContactID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: contact", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify contact: %w", err)
		}
		order.ContactID = req.ContactID
		order.Contact = nil
	}
	if req.LeadID != nil {
		if _, err := s.leadRepo.GetByID(ctx, *req.LeadID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: lead", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify lead: %w", err)
		}
		order.LeadID = req.LeadID
		order.Lead = nil
	}
	if req.ClientCompanyID != nil {
		if _, err := s.companyRepo.GetByID(ctx, *req.ClientCompanyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client company", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify client company: %w", err)
		}
		order.ClientCompanyID = req.ClientCompanyID
		order.ClientCompany = nil
	}
	if req.ManagerID != nil {
		order.ManagerID = *req.ManagerID
		order.Manager = nil
	}
	if req.ManufacturerID != nil {
		if _, err := s.supplierRepo.GetByID(ctx, *req.ManufacturerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: manufacturer", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify manufacturer: %w", err)
		}
		order.ManufacturerID = req.ManufacturerID
		order.Manufacturer = nil
	}
	if order.ManufacturerID != nil && order.Type != domain.OrderTypeCustomMade {
		return nil, ErrManufacturerNotAllowed
	}

	if req.FinalAmount != nil {
		order.FinalAmount = req.FinalAmount
	}
	if req.PaymentStatus != nil {
		order.PaymentStatus = *req.PaymentStatus
		if *req.PaymentStatus != domain.PaymentStatusPartial {
			order.PartialPaymentAmount = nil
		}
	}
	if req.PartialPaymentAmount != nil {
		order.PartialPaymentAmount = req.PartialPaymentAmount
	}
	if err := validatePayment(order.PaymentStatus, order.PartialPaymentAmount); err != nil {
		return nil, err
	}

	if req.DeliveryAddress != nil {
		order.DeliveryAddress = *req.DeliveryAddress
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}

	if order.Status.IsTerminal() {
		if order.ClosingDate == nil {
			now := time.Now()
			order.ClosingDate = &now
		}
	} else {
		order.ClosingDate = nil
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if order.Status != oldStatus {
		from := oldStatus
		if err := s.historyRepo.RecordTransition(ctx, order.ID, &from, order.Status, userCtx.UserID, userCtx.DisplayName, transitionNote); err != nil {
			s.logger.Error("failed to record status transition",
				zap.Uint("order_id", order.ID), zap.Error(err))
		}
		s.notifyStatusChanged(ctx, order, userCtx)
	}

	s.hub.Invalidate(oldType)
	if order.Type != oldType {
		s.hub.Invalidate(order.Type)
	}

	return s.GetByID(ctx, order.ID)
}

// Board returns the live board for an order type, loading it on first use.
func (s *OrderService) Board(ctx context.Context, orderType domain.OrderType) (*domain.BoardDTO, error) {
	state, err := s.hub.Board(ctx, orderType)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToBoardDTO(state)
	return &dto, nil
}

// RefreshBoard reloads the board from the database.
func (s *OrderService) RefreshBoard(ctx context.Context, orderType domain.OrderType) (*domain.BoardDTO, error) {
	state, err := s.hub.Refresh(ctx, orderType)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToBoardDTO(state)
	return &dto, nil
}

// MoveOrder handles a board drag to another column. The move is optimistic:
// the returned board already shows the card in its new column while the
// status change persists; a persistence failure rolls it back and surfaces
// the error.
func (s *OrderService) MoveOrder(ctx context.Context, orderType domain.OrderType, orderID uint, req *domain.MoveOrderRequest) (*domain.BoardDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	session := board.Session{
		UserID:      userCtx.UserID,
		DisplayName: userCtx.DisplayName,
		Role:        userCtx.Role,
	}

	state, err := s.hub.Board(ctx, orderType)
	if err != nil {
		return nil, err
	}
	card, ok := state.Orders[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: order %d on %s board", ErrNotFound, orderID, orderType)
	}

	toIndex := 1 << 30 // append to the end of the column
	if req.ToIndex != nil {
		toIndex = *req.ToIndex
	}
	move := board.Move{
		OrderID: orderID,
		From:    card.Status,
		To:      req.Status,
		ToIndex: toIndex,
		Note:    req.Note,
	}

	if err := s.hub.Move(ctx, orderType, session, move); err != nil {
		return nil, err
	}

	state, err = s.hub.Board(ctx, orderType)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToBoardDTO(state)
	return &dto, nil
}

// StatusCatalog returns the ordered status list for an order type.
func (s *OrderService) StatusCatalog(orderType domain.OrderType) (*domain.StatusCatalogDTO, error) {
	if !orderType.IsValid() {
		return nil, domain.ErrUnknownOrderType
	}
	dto := mapper.ToStatusCatalogDTO(orderType)
	return &dto, nil
}

// StatusHistory returns the order's status trail, newest first.
func (s *OrderService) StatusHistory(ctx context.Context, orderID uint) ([]domain.OrderStatusHistoryDTO, error) {
	if _, err := s.orderRepo.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	entries, err := s.historyRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}
	dtos := make([]domain.OrderStatusHistoryDTO, len(entries))
	for i := range entries {
		dtos[i] = mapper.ToOrderStatusHistoryDTO(&entries[i])
	}
	return dtos, nil
}

// RecordPayment applies an incoming payment to the order. The payment status
// moves to fully-paid once the running total covers the final amount,
// otherwise to partially-paid with the running total stored.
func (s *OrderService) RecordPayment(ctx context.Context, id uint, req *domain.RecordPaymentRequest) (*domain.OrderDTO, error) {
	userCtx, err := s.requireEditor(ctx)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order.PaymentStatus == domain.PaymentStatusRefunded {
		return nil, fmt.Errorf("%w: order is refunded", ErrConflict)
	}
	if order.PaymentStatus == domain.PaymentStatusFullyPaid {
		return nil, fmt.Errorf("%w: order is already fully paid", ErrConflict)
	}

	paid := req.Amount
	if order.PaymentStatus == domain.PaymentStatusPartial && order.PartialPaymentAmount != nil {
		paid += *order.PartialPaymentAmount
	}

	status := domain.PaymentStatusPartial
	var partial *float64
	if order.FinalAmount != nil && paid >= *order.FinalAmount {
		status = domain.PaymentStatusFullyPaid
	} else {
		partial = &paid
	}

	if err := s.orderRepo.UpdatePayment(ctx, id, status, partial); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	s.logger.Info("payment recorded",
		zap.Uint("order_id", id),
		zap.Float64("amount", req.Amount),
		zap.String("payment_status", string(status)),
		zap.String("recorded_by", userCtx.UserID))

	if order.ManagerID != "" && order.ManagerID != userCtx.UserID {
		s.notify(ctx, order.ManagerID, domain.NotificationTypePaymentReceived,
			"Payment received",
			fmt.Sprintf("A payment of %.2f was recorded on order %s.", req.Amount, order.Number),
			order.ID)
	}

	s.hub.Invalidate(order.Type)
	return s.GetByID(ctx, id)
}

// Delete removes an order and its status trail. Admin only; everyone else
// cancels orders through the workflow instead.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !userCtx.IsAdmin() {
		return ErrPermissionDenied
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get order: %w", err)
	}

	if err := s.historyRepo.DeleteByOrderID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete status history: %w", err)
	}
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.hub.Invalidate(order.Type)
	s.logger.Info("order deleted",
		zap.Uint("order_id", id),
		zap.String("number", order.Number),
		zap.String("deleted_by", userCtx.UserID))
	return nil
}

// NotifyStale flags open orders that have not changed since the cutoff by
// notifying their managers. Called from the scheduled stale-order job.
// Returns the number of orders flagged.
func (s *OrderService) NotifyStale(ctx context.Context, cutoff time.Time) (int, error) {
	orders, err := s.orderRepo.ListStale(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale orders: %w", err)
	}

	flagged := 0
	for i := range orders {
		order := &orders[i]
		if order.ManagerID == "" {
			continue
		}
		label := string(order.Status)
		if meta, ok := domain.MetaFor(order.Status); ok {
			label = meta.Label
		}
		s.notify(ctx, order.ManagerID, domain.NotificationTypeOrderStale,
			"Order needs attention",
			fmt.Sprintf("Order %s has been sitting in %s since %s.",
				order.Number, label, order.UpdatedAt.Format("2006-01-02")),
			order.ID)
		flagged++
	}

	if flagged > 0 {
		s.logger.Info("flagged stale orders",
			zap.Int("count", flagged),
			zap.Time("cutoff", cutoff))
	}
	return flagged, nil
}

func (s *OrderService) notifyStatusChanged(ctx context.Context, order *domain.Order, actor *auth.UserContext) {
	if order.ManagerID == "" || order.ManagerID == actor.UserID {
		return
	}
	label := string(order.Status)
	if meta, ok := domain.MetaFor(order.Status); ok {
		label = meta.Label
	}
	s.notify(ctx, order.ManagerID, domain.NotificationTypeOrderStatusChanged,
		"Order status changed",
		fmt.Sprintf("Order %s was moved to %s by %s.", order.Number, label, actor.DisplayName),
		order.ID)
}

func (s *OrderService) notify(ctx context.Context, userID string, notificationType domain.NotificationType, title, message string, orderID uint) {
	notification := &domain.Notification{
		UserID:     userID,
		Type:       string(notificationType),
		Title:      title,
		Message:    message,
		EntityID:   fmt.Sprintf("%d", orderID),
		EntityType: "order",
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to create notification",
			zap.String("user_id", userID),
			zap.String("type", string(notificationType)),
			zap.Error(err))
	}
}

// validatePayment enforces that a partial amount is present exactly when the
// payment status is partially-paid.
func validatePayment(status domain.PaymentStatus, partial *float64) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: payment status %q", ErrInvalidInput, status)
	}
	if status == domain.PaymentStatusPartial {
		if partial == nil || *partial <= 0 {
			return ErrPartialAmountRequired
		}
		return nil
	}
	if partial != nil {
		return ErrPartialAmountForbidden
	}
	return nil
}

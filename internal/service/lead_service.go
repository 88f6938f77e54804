package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/auth"
	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/mapper"
	"github.com/woodline/crm-api/internal/repository"
)

// LeadService manages incoming inquiries and their conversion into orders.
type LeadService struct {
	leadRepo         *repository.LeadRepository
	notificationRepo *repository.NotificationRepository
	orderService     *OrderService
	logger           *zap.Logger
}

func NewLeadService(
	leadRepo *repository.LeadRepository,
	notificationRepo *repository.NotificationRepository,
	orderService *OrderService,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:         leadRepo,
		notificationRepo: notificationRepo,
		orderService:     orderService,
		logger:           logger,
	}
}

// Create registers a new lead.
func (s *LeadService) Create(ctx context.Context, req *domain.CreateLeadRequest) (*domain.LeadDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}

	lead := &domain.Lead{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		Source:       req.Source,
		Status:       domain.LeadStatusNew,
		AssignedToID: req.AssignedToID,
		Notes:        req.Notes,
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	if lead.AssignedToID != "" && lead.AssignedToID != userCtx.UserID {
		s.notifyAssigned(ctx, lead)
	}

	s.logger.Info("lead created",
		zap.String("lead_id", lead.ID.String()),
		zap.String("source", lead.Source),
		zap.String("created_by", userCtx.UserID))

	return s.GetByID(ctx, lead.ID)
}

// GetByID returns one lead.
func (s *LeadService) GetByID(ctx context.Context, id uuid.UUID) (*domain.LeadDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lead %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

// List returns leads with filters and pagination.
func (s *LeadService) List(ctx context.Context, page, pageSize int, filters *repository.LeadFilters) ([]domain.LeadDTO, int64, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	leads, total, err := s.leadRepo.ListWithFilters(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	dtos := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = mapper.ToLeadDTO(&leads[i])
	}
	return dtos, total, nil
}

// Update applies a form edit to a lead. A converted lead is frozen.
func (s *LeadService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateLeadRequest) (*domain.LeadDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lead %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	if lead.Status == domain.LeadStatusConverted {
		return nil, ErrLeadAlreadyConverted
	}

	assigneeChanged := false
	if req.Name != nil {
		lead.Name = *req.Name
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.Source != nil {
		lead.Source = *req.Source
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("%w: lead status %q", ErrInvalidInput, *req.Status)
		}
		if *req.Status == domain.LeadStatusConverted {
			// Conversion goes through Convert so an order is always created.
			return nil, fmt.Errorf("%w: use the convert operation", ErrInvalidInput)
		}
		lead.Status = *req.Status
	}
	if req.AssignedToID != nil && *req.AssignedToID != lead.AssignedToID {
		lead.AssignedToID = *req.AssignedToID
		lead.AssignedTo = nil
		assigneeChanged = true
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	if assigneeChanged && lead.AssignedToID != "" && lead.AssignedToID != userCtx.UserID {
		s.notifyAssigned(ctx, lead)
	}

	return s.GetByID(ctx, lead.ID)
}

// Convert turns a lead into an order of the requested type. The lead moves
// to converted and keeps a back-reference to the order; converting twice is
// rejected.
func (s *LeadService) Convert(ctx context.Context, id uuid.UUID, req *domain.ConvertLeadRequest) (*domain.OrderDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: lead %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	if lead.Status == domain.LeadStatusConverted {
		return nil, ErrLeadAlreadyConverted
	}

	leadID := lead.ID
	order, err := s.orderService.Create(ctx, &domain.CreateOrderRequest{
		OrderType:       req.OrderType,
		LeadID:          &leadID,
		ContactID:       req.ContactID,
		ClientCompanyID: req.ClientCompanyID,
		ManagerID:       req.ManagerID,
		Notes:           req.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err := s.leadRepo.MarkConverted(ctx, lead.ID, order.ID); err != nil {
		// The order exists; report the inconsistency instead of hiding it.
		return nil, fmt.Errorf("order %d created but lead not marked converted: %w", order.ID, err)
	}

	s.logger.Info("lead converted",
		zap.String("lead_id", lead.ID.String()),
		zap.Uint("order_id", order.ID),
		zap.String("converted_by", userCtx.UserID))

	return order, nil
}

// Delete removes a lead. Converted leads stay for the audit trail.
func (s *LeadService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return ErrPermissionDenied
	}

	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: lead %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get lead: %w", err)
	}
	if lead.Status == domain.LeadStatusConverted {
		return fmt.Errorf("%w: converted leads cannot be deleted", ErrConflict)
	}

	if err := s.leadRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

// CountByStatus returns the lead funnel counts.
func (s *LeadService) CountByStatus(ctx context.Context) (map[domain.LeadStatus]int64, error) {
	counts, err := s.leadRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	return counts, nil
}

func (s *LeadService) notifyAssigned(ctx context.Context, lead *domain.Lead) {
	notification := &domain.Notification{
		UserID:     lead.AssignedToID,
		Type:       string(domain.NotificationTypeLeadAssigned),
		Title:      "Lead assigned to you",
		Message:    fmt.Sprintf("Lead %q was assigned to you.", lead.Name),
		EntityID:   lead.ID.String(),
		EntityType: "lead",
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		s.logger.Error("failed to create lead-assigned notification",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err))
	}
}

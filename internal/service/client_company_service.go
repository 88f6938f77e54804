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

// ClientCompanyService manages corporate clients.
type ClientCompanyService struct {
	companyRepo *repository.ClientCompanyRepository
	contactRepo *repository.ContactRepository
	logger      *zap.Logger
}

func NewClientCompanyService(
	companyRepo *repository.ClientCompanyRepository,
	contactRepo *repository.ContactRepository,
	logger *zap.Logger,
) *ClientCompanyService {
	return &ClientCompanyService{
		companyRepo: companyRepo,
		contactRepo: contactRepo,
		logger:      logger,
	}
}

func (s *ClientCompanyService) requireEditor(ctx context.Context) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return ErrPermissionDenied
	}
	return nil
}

// Create creates a new client company.
func (s *ClientCompanyService) Create(ctx context.Context, req *domain.CreateClientCompanyRequest) (*domain.ClientCompanyDTO, error) {
	if err := s.requireEditor(ctx); err != nil {
		return nil, err
	}

	company := &domain.ClientCompany{
		Name:      req.Name,
		OrgNumber: req.OrgNumber,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Notes:     req.Notes,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create client company: %w", err)
	}
	return s.GetByID(ctx, company.ID)
}

// GetByID returns one client company.
func (s *ClientCompanyService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientCompanyDTO, error) {
	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client company %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get client company: %w", err)
	}
	dto := mapper.ToClientCompanyDTO(company)
	return &dto, nil
}

// List returns client companies with optional search and pagination.
func (s *ClientCompanyService) List(ctx context.Context, page, pageSize int, search string) ([]domain.ClientCompanyDTO, int64, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	companies, total, err := s.companyRepo.List(ctx, page, pageSize, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list client companies: %w", err)
	}
	dtos := make([]domain.ClientCompanyDTO, len(companies))
	for i := range companies {
		dtos[i] = mapper.ToClientCompanyDTO(&companies[i])
	}
	return dtos, total, nil
}

// Update applies a form edit to a client company.
func (s *ClientCompanyService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientCompanyRequest) (*domain.ClientCompanyDTO, error) {
	if err := s.requireEditor(ctx); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: client company %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get client company: %w", err)
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.OrgNumber != nil {
		company.OrgNumber = *req.OrgNumber
	}
	if req.Email != nil {
		company.Email = *req.Email
	}
	if req.Phone != nil {
		company.Phone = *req.Phone
	}
	if req.Address != nil {
		company.Address = *req.Address
	}
	if req.Notes != nil {
		company.Notes = *req.Notes
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to update client company: %w", err)
	}
	return s.GetByID(ctx, company.ID)
}

// Delete removes a client company. Companies with contacts still attached
// are kept so contact records never dangle.
func (s *ClientCompanyService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.requireEditor(ctx); err != nil {
		return err
	}

	if _, err := s.companyRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: client company %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get client company: %w", err)
	}

	contacts, err := s.contactRepo.ListByClientCompany(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check company contacts: %w", err)
	}
	if len(contacts) > 0 {
		return fmt.Errorf("%w: company has %d contacts", ErrConflict, len(contacts))
	}

	if err := s.companyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client company: %w", err)
	}
	return nil
}

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

// ContactService manages individual client persons.
type ContactService struct {
	contactRepo *repository.ContactRepository
	companyRepo *repository.ClientCompanyRepository
	logger      *zap.Logger
}

func NewContactService(
	contactRepo *repository.ContactRepository,
	companyRepo *repository.ClientCompanyRepository,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		companyRepo: companyRepo,
		logger:      logger,
	}
}

func (s *ContactService) requireEditor(ctx context.Context) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}
	return userCtx, nil
}

// Create creates a new contact.
func (s *ContactService) Create(ctx context.Context, req *domain.CreateContactRequest) (*domain.ContactDTO, error) {
	if _, err := s.requireEditor(ctx); err != nil {
		return nil, err
	}

	if req.ClientCompanyID != nil {
		if _, err := s.companyRepo.GetByID(ctx, *req.ClientCompanyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client company", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify client company: %w", err)
		}
	}

	contact := &domain.Contact{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		ClientCompanyID: req.ClientCompanyID,
		Address:         req.Address,
		Notes:           req.Notes,
		IsActive:        true,
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return s.GetByID(ctx, contact.ID)
}

// GetByID returns one contact.
func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contact %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

// List returns active contacts with pagination.
func (s *ContactService) List(ctx context.Context, page, pageSize int) ([]domain.ContactDTO, int64, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	contacts, total, err := s.contactRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, total, nil
}

// ListByClientCompany returns a company's contacts.
func (s *ContactService) ListByClientCompany(ctx context.Context, companyID uuid.UUID) ([]domain.ContactDTO, error) {
	contacts, err := s.contactRepo.ListByClientCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}

// Search finds contacts by name, email or phone.
func (s *ContactService) Search(ctx context.Context, query string, limit int) ([]domain.ContactDTO, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	contacts, err := s.contactRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}

// Update applies a form edit to a contact.
func (s *ContactService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateContactRequest) (*domain.ContactDTO, error) {
	if _, err := s.requireEditor(ctx); err != nil {
		return nil, err
	}

	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contact %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	if req.FirstName != nil {
		contact.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		contact.LastName = *req.LastName
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.ClientCompanyID != nil {
		if _, err := s.companyRepo.GetByID(ctx, *req.ClientCompanyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: client company", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify client company: %w", err)
		}
		contact.ClientCompanyID = req.ClientCompanyID
		contact.ClientCompany = nil
	}
	if req.Address != nil {
		contact.Address = *req.Address
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return s.GetByID(ctx, contact.ID)
}

// Delete removes a contact.
func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.requireEditor(ctx); err != nil {
		return err
	}
	if _, err := s.contactRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: contact %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get contact: %w", err)
	}
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

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

// SupplierService manages manufacturing partners and materials vendors.
type SupplierService struct {
	supplierRepo *repository.SupplierRepository
	logger       *zap.Logger
}

// NewSupplierService creates a new supplier service instance
func NewSupplierService(
	supplierRepo *repository.SupplierRepository,
	logger *zap.Logger,
) *SupplierService {
	return &SupplierService{
		supplierRepo: supplierRepo,
		logger:       logger,
	}
}

func (s *SupplierService) requireEditor(ctx context.Context) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return nil, ErrPermissionDenied
	}
	return userCtx, nil
}

// Create creates a new supplier
func (s *SupplierService) Create(ctx context.Context, req *domain.CreateSupplierRequest) (*domain.SupplierDTO, error) {
	if _, err := s.requireEditor(ctx); err != nil {
		return nil, err
	}

	supplier := &domain.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Notes:         req.Notes,
		IsActive:      true,
	}
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}

	s.logger.Info("supplier created", zap.String("supplier_id", supplier.ID.String()))
	return s.GetByID(ctx, supplier.ID)
}

// GetByID returns one supplier.
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*domain.SupplierDTO, error) {
	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	dto := mapper.ToSupplierDTO(supplier)
	return &dto, nil
}

// List returns suppliers with filters, sorting and pagination.
func (s *SupplierService) List(ctx context.Context, page, pageSize int, filters *repository.SupplierFilters, sort repository.SortConfig) ([]domain.SupplierDTO, int64, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	suppliers, total, err := s.supplierRepo.ListWithSortConfig(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list suppliers: %w", err)
	}
	dtos := make([]domain.SupplierDTO, len(suppliers))
	for i := range suppliers {
		dtos[i] = mapper.ToSupplierDTO(&suppliers[i])
	}
	return dtos, total, nil
}

// Search finds suppliers by name or contact person.
func (s *SupplierService) Search(ctx context.Context, query string, limit int) ([]domain.SupplierDTO, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	suppliers, err := s.supplierRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search suppliers: %w", err)
	}
	dtos := make([]domain.SupplierDTO, len(suppliers))
	for i := range suppliers {
		dtos[i] = mapper.ToSupplierDTO(&suppliers[i])
	}
	return dtos, nil
}

// Update applies a form edit to a supplier.
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateSupplierRequest) (*domain.SupplierDTO, error) {
	if _, err := s.requireEditor(ctx); err != nil {
		return nil, err
	}

	supplier, err := s.supplierRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: supplier %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.ContactPerson != nil {
		supplier.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		supplier.Phone = *req.Phone
	}
	if req.Email != nil {
		supplier.Email = *req.Email
	}
	if req.Address != nil {
		supplier.Address = *req.Address
	}
	if req.Notes != nil {
		supplier.Notes = *req.Notes
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}

	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return s.GetByID(ctx, supplier.ID)
}

// Delete removes a supplier. A supplier still named as manufacturer on open
// custom-made orders cannot be removed.
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.requireEditor(ctx); err != nil {
		return err
	}

	if _, err := s.supplierRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: supplier %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get supplier: %w", err)
	}

	inUse, err := s.supplierRepo.HasActiveOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check supplier orders: %w", err)
	}
	if inUse {
		return ErrSupplierInUse
	}

	if err := s.supplierRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	s.logger.Info("supplier deleted", zap.String("supplier_id", id.String()))
	return nil
}

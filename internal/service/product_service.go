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

// ProductService manages the product catalog ready-made orders draw from.
type ProductService struct {
	productRepo  *repository.ProductRepository
	supplierRepo *repository.SupplierRepository
	logger       *zap.Logger
}

func NewProductService(
	productRepo *repository.ProductRepository,
	supplierRepo *repository.SupplierRepository,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		logger:       logger,
	}
}

func (s *ProductService) requireEditor(ctx context.Context) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !userCtx.CanManageOrders() {
		return ErrPermissionDenied
	}
	return nil
}

// Create adds a product to the catalog. SKUs are unique.
func (s *ProductService) Create(ctx context.Context, req *domain.CreateProductRequest) (*domain.ProductDTO, error) {
	if err := s.requireEditor(ctx); err != nil {
		return nil, err
	}

	if req.SKU != "" {
		if _, err := s.productRepo.GetBySKU(ctx, req.SKU); err == nil {
			return nil, fmt.Errorf("%w: SKU %s already exists", ErrConflict, req.SKU)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check SKU: %w", err)
		}
	}
	if req.SupplierID != nil {
		if _, err := s.supplierRepo.GetByID(ctx, *req.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: supplier", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify supplier: %w", err)
		}
	}

	product := &domain.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		Description: req.Description,
		Price:       req.Price,
		SupplierID:  req.SupplierID,
		IsActive:    true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return s.GetByID(ctx, product.ID)
}

// GetByID returns one product.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductDTO, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	dto := mapper.ToProductDTO(product)
	return &dto, nil
}

// List returns products with optional search and pagination.
func (s *ProductService) List(ctx context.Context, page, pageSize int, search string, activeOnly bool) ([]domain.ProductDTO, int64, error) {
	page, pageSize = repository.NormalizePage(page, pageSize)
	products, total, err := s.productRepo.List(ctx, page, pageSize, search, activeOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i])
	}
	return dtos, total, nil
}

// ListBySupplier returns a supplier's products.
func (s *ProductService) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]domain.ProductDTO, error) {
	products, err := s.productRepo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	dtos := make([]domain.ProductDTO, len(products))
	for i := range products {
		dtos[i] = mapper.ToProductDTO(&products[i])
	}
	return dtos, nil
}

// Update applies a form edit to a product.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProductRequest) (*domain.ProductDTO, error) {
	if err := s.requireEditor(ctx); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if req.SKU != nil && *req.SKU != product.SKU {
		if *req.SKU != "" {
			if existing, err := s.productRepo.GetBySKU(ctx, *req.SKU); err == nil && existing.ID != id {
				return nil, fmt.Errorf("%w: SKU %s already exists", ErrConflict, *req.SKU)
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to check SKU: %w", err)
			}
		}
		product.SKU = *req.SKU
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.SupplierID != nil {
		if _, err := s.supplierRepo.GetByID(ctx, *req.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: supplier", ErrNotFound)
			}
			return nil, fmt.Errorf("failed to verify supplier: %w", err)
		}
		product.SupplierID = req.SupplierID
		product.Supplier = nil
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.GetByID(ctx, product.ID)
}

// Delete removes a product from the catalog.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.requireEditor(ctx); err != nil {
		return err
	}
	if _, err := s.productRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to get product: %w", err)
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

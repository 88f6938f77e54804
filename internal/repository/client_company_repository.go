package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/woodline/crm-api/internal/domain"
)

type ClientCompanyRepository struct {
	db *gorm.DB
}

func NewClientCompanyRepository(db *gorm.DB) *ClientCompanyRepository {
	return &ClientCompanyRepository{db: db}
}

func (r *ClientCompanyRepository) Create(ctx context.Context, company *domain.ClientCompany) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *ClientCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientCompany, error) {
	var company domain.ClientCompany
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *ClientCompanyRepository) List(ctx context.Context, page, pageSize int, search string) ([]domain.ClientCompany, int64, error) {
	var companies []domain.ClientCompany
	var total int64

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.ClientCompany{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR org_number LIKE ?", pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("name ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&companies).Error

	return companies, total, err
}

func (r *ClientCompanyRepository) Update(ctx context.Context, company *domain.ClientCompany) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *ClientCompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.ClientCompany{}, "id = ?", id).Error
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/models"
)

type CategoryRepository struct {
	scoped[models.Category]
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{scoped[models.Category]{db: db}}
}

func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return NewCategoryRepository(tx)
}

// List returns the company's categories, optionally of one kind.
func (r *CategoryRepository) List(ctx context.Context, companyID uuid.UUID, kind models.EntryKind) ([]models.Category, error) {
	var out []models.Category
	q := company(r.db.WithContext(ctx), companyID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	err := q.Order("kind ASC, name ASC").Find(&out).Error
	return out, err
}

func (r *CategoryRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Category, error) {
	return r.get(r.db.WithContext(ctx), companyID, id)
}

// OfKind loads a company category and checks it books entries of kind.
func (r *CategoryRepository) OfKind(ctx context.Context, companyID, id uuid.UUID, kind models.EntryKind) (*models.Category, error) {
	cat, err := r.Get(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("category: %w", err)
	}
	if cat.Kind != kind {
		return nil, apperr.Invalid("category %q is not an %s category", cat.Name, kind)
	}
	return cat, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	return translate(r.db.WithContext(ctx).Save(c).Error)
}

func (r *CategoryRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.delete(r.db.WithContext(ctx), companyID, id)
}

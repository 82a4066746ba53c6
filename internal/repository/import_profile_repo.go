package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/models"
)

type ImportProfileRepository struct {
	scoped[models.ImportProfile]
}

func NewImportProfileRepository(db *gorm.DB) *ImportProfileRepository {
	return &ImportProfileRepository{scoped[models.ImportProfile]{db: db}}
}

func (r *ImportProfileRepository) List(ctx context.Context, companyID uuid.UUID) ([]models.ImportProfile, error) {
	var out []models.ImportProfile
	err := company(r.db.WithContext(ctx), companyID).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *ImportProfileRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.ImportProfile, error) {
	return r.get(r.db.WithContext(ctx), companyID, id)
}

func (r *ImportProfileRepository) Save(ctx context.Context, p *models.ImportProfile) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

func (r *ImportProfileRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.delete(r.db.WithContext(ctx), companyID, id)
}

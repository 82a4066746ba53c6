package ledger

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
)

type CategoryService struct {
	db   *gorm.DB
	repo *repository.CategoryRepository
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db, repo: repository.NewCategoryRepository(db)}
}

func (s *CategoryService) List(ctx context.Context, companyID uuid.UUID, kind models.EntryKind) ([]models.Category, error) {
	if kind != "" && !kind.Valid() {
		return nil, apperr.Invalid("unknown kind %q", kind)
	}
	return s.repo.List(ctx, companyID, kind)
}

func (s *CategoryService) Create(ctx context.Context, companyID uuid.UUID, kind models.EntryKind, name, color string) (*models.Category, error) {
	if !kind.Valid() {
		return nil, apperr.Invalid("unknown kind %q", kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	c := &models.Category{
		ID:        uuid.New(),
		CompanyID: companyID,
		Kind:      kind,
		Name:      name,
		Color:     color,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename changes name and color. The kind is fixed once entries may use it.
func (s *CategoryService) Rename(ctx context.Context, companyID, id uuid.UUID, name, color string) (*models.Category, error) {
	c, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	c.Name = name
	c.Color = color
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the category, uncategorizes its entries and drops its budgets.
func (s *CategoryService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Get(ctx, companyID, id); err != nil {
			return err
		}
		for _, model := range []interface{}{&models.Income{}, &models.Expense{}, &models.RecurringExpense{}} {
			err := tx.Model(model).
				Where("company_id = ? AND category_id = ?", companyID, id).
				Update("category_id", nil).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("company_id = ? AND category_id = ?", companyID, id).Delete(&models.Budget{}).Error; err != nil {
			return err
		}
		return s.repo.WithTx(tx).Delete(ctx, companyID, id)
	})
}

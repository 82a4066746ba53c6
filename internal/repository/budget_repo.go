package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/models"
)

type BudgetRepository struct {
	scoped[models.Budget]
}

func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{scoped[models.Budget]{db: db}}
}

// ForPeriod returns the monthly budgets of (year, month) plus the yearly
// budgets of year. month == 0 returns only yearly budgets.
func (r *BudgetRepository) ForPeriod(ctx context.Context, companyID uuid.UUID, year, month int) ([]models.Budget, error) {
	var out []models.Budget
	err := company(r.db.WithContext(ctx), companyID).
		Where("year = ?", year).
		Where("(period = ? AND month = ?) OR period = ?", models.BudgetMonthly, month, models.BudgetYearly).
		Order("period ASC").
		Find(&out).Error
	return out, err
}

func (r *BudgetRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Budget, error) {
	return r.get(r.db.WithContext(ctx), companyID, id)
}

func (r *BudgetRepository) Create(ctx context.Context, b *models.Budget) error {
	return translate(r.db.WithContext(ctx).Create(b).Error)
}

func (r *BudgetRepository) Update(ctx context.Context, b *models.Budget) error {
	return translate(r.db.WithContext(ctx).Save(b).Error)
}

func (r *BudgetRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.delete(r.db.WithContext(ctx), companyID, id)
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/models"
)

type RecurringExpenseRepository struct {
	scoped[models.RecurringExpense]
}

func NewRecurringExpenseRepository(db *gorm.DB) *RecurringExpenseRepository {
	return &RecurringExpenseRepository{scoped[models.RecurringExpense]{db: db}}
}

func (r *RecurringExpenseRepository) WithTx(tx *gorm.DB) *RecurringExpenseRepository {
	return NewRecurringExpenseRepository(tx)
}

func (r *RecurringExpenseRepository) List(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]models.RecurringExpense, error) {
	var out []models.RecurringExpense
	q := company(r.db.WithContext(ctx), companyID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Order("next_date ASC").Find(&out).Error
	return out, err
}

func (r *RecurringExpenseRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.RecurringExpense, error) {
	return r.get(r.db.WithContext(ctx), companyID, id)
}

func (r *RecurringExpenseRepository) Create(ctx context.Context, t *models.RecurringExpense) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *RecurringExpenseRepository) Update(ctx context.Context, t *models.RecurringExpense) error {
	return translate(r.db.WithContext(ctx).Save(t).Error)
}

func (r *RecurringExpenseRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.delete(r.db.WithContext(ctx), companyID, id)
}

// Due returns active templates whose next date is on or before asOf. A nil
// companyID sweeps every tenant.
func (r *RecurringExpenseRepository) Due(ctx context.Context, companyID *uuid.UUID, asOf time.Time) ([]models.RecurringExpense, error) {
	var out []models.RecurringExpense
	q := r.db.WithContext(ctx).Where("active = ? AND next_date <= ?", true, asOf)
	if companyID != nil {
		q = company(q, *companyID)
	}
	err := q.Order("company_id ASC, next_date ASC").Find(&out).Error
	return out, err
}

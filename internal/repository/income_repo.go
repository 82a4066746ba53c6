package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kaspit-backend/internal/models"
)

type IncomeRepository struct {
	scoped[models.Income]
}

func NewIncomeRepository(db *gorm.DB) *IncomeRepository {
	return &IncomeRepository{scoped[models.Income]{db: db}}
}

// WithTx returns a repository bound to an open transaction.
func (r *IncomeRepository) WithTx(tx *gorm.DB) *IncomeRepository {
	return NewIncomeRepository(tx)
}

func (r *IncomeRepository) List(ctx context.Context, companyID uuid.UUID, f LedgerFilter) ([]models.Income, int64, error) {
	return listLedger[models.Income](r.db.WithContext(ctx), companyID, f, "customer_name")
}

func (r *IncomeRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Income, error) {
	return r.get(r.db.WithContext(ctx), companyID, id)
}

func (r *IncomeRepository) Create(ctx context.Context, inc *models.Income) error {
	return translate(r.db.WithContext(ctx).Create(inc).Error)
}

func (r *IncomeRepository) Update(ctx context.Context, inc *models.Income) error {
	return translate(r.db.WithContext(ctx).Save(inc).Error)
}

func (r *IncomeRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.delete(r.db.WithContext(ctx), companyID, id)
}

// Between returns incomes dated in [from, to).
func (r *IncomeRepository) Between(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]models.Income, error) {
	var out []models.Income
	err := company(r.db.WithContext(ctx), companyID).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").
		Find(&out).Error
	return out, err
}

// Unreconciled returns incomes in [from, to] not yet linked to a bank transaction.
func (r *IncomeRepository) Unreconciled(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]models.Income, error) {
	var out []models.Income
	err := company(r.db.WithContext(ctx), companyID).
		Where("bank_transaction_id IS NULL").
		Where("date >= ? AND date <= ?", from, to).
		Find(&out).Error
	return out, err
}

// SumBetween sums gross income in [from, to).
func (r *IncomeRepository) SumBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	q := company(r.db.WithContext(ctx).Model(&models.Income{}), companyID).
		Where("date >= ? AND date < ?", from, to)
	return sumAmount(q, "amount")
}

// SumPaid sums every paid income up to and including asOf.
func (r *IncomeRepository) SumPaid(ctx context.Context, companyID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	q := company(r.db.WithContext(ctx).Model(&models.Income{}), companyID).
		Where("status = ? AND date <= ?", models.PaymentPaid, asOf)
	return sumAmount(q, "amount")
}

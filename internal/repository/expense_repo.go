package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kaspit-backend/internal/models"
)

type ExpenseRepository struct {
	scoped[models.Expense]
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{scoped[models.Expense]{db: db}}
}

func (r *ExpenseRepository) WithTx(tx *gorm.DB) *ExpenseRepository {
	return NewExpenseRepository(tx)
}

func (r *ExpenseRepository) List(ctx context.Context, companyID uuid.UUID, f LedgerFilter) ([]models.Expense, int64, error) {
	return listLedger[models.Expense](r.db.WithContext(ctx), companyID, f, "supplier_name")
}

func (r *ExpenseRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Expense, error) {
	return r.get(r.db.WithContext(ctx), companyID, id)
}

func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

// CreateIfAbsent inserts e unless a row with the same (recurring_expense_id, date)
// exists. It reports whether a row was inserted.
func (r *ExpenseRepository) CreateIfAbsent(ctx context.Context, e *models.Expense) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	return res.RowsAffected > 0, res.Error
}

func (r *ExpenseRepository) Update(ctx context.Context, e *models.Expense) error {
	return translate(r.db.WithContext(ctx).Save(e).Error)
}

func (r *ExpenseRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.delete(r.db.WithContext(ctx), companyID, id)
}

func (r *ExpenseRepository) Between(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]models.Expense, error) {
	var out []models.Expense
	err := company(r.db.WithContext(ctx), companyID).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").
		Find(&out).Error
	return out, err
}

func (r *ExpenseRepository) Unreconciled(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]models.Expense, error) {
	var out []models.Expense
	err := company(r.db.WithContext(ctx), companyID).
		Where("bank_transaction_id IS NULL").
		Where("date >= ? AND date <= ?", from, to).
		Find(&out).Error
	return out, err
}

func (r *ExpenseRepository) SumBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	q := company(r.db.WithContext(ctx).Model(&models.Expense{}), companyID).
		Where("date >= ? AND date < ?", from, to)
	return sumAmount(q, "amount")
}

// SumOneOff sums expenses in [from, to) that no recurring template generated.
func (r *ExpenseRepository) SumOneOff(ctx context.Context, companyID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	q := company(r.db.WithContext(ctx).Model(&models.Expense{}), companyID).
		Where("recurring_expense_id IS NULL").
		Where("date >= ? AND date < ?", from, to)
	return sumAmount(q, "amount")
}

func (r *ExpenseRepository) SumPaid(ctx context.Context, companyID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	q := company(r.db.WithContext(ctx).Model(&models.Expense{}), companyID).
		Where("status = ? AND date <= ?", models.PaymentPaid, asOf)
	return sumAmount(q, "amount")
}

// CategorySum is the spend of one category.
type CategorySum struct {
	CategoryID uuid.UUID
	Total      decimal.Decimal
}

// SumByCategory groups expenses in [from, to) by category, skipping uncategorized rows.
func (r *ExpenseRepository) SumByCategory(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]CategorySum, error) {
	var rows []CategorySum
	err := company(r.db.WithContext(ctx).Model(&models.Expense{}), companyID).
		Where("date >= ? AND date < ?", from, to).
		Where("category_id IS NOT NULL").
		Select("category_id, COALESCE(SUM(amount), 0) AS total").
		Group("category_id").
		Scan(&rows).Error
	return rows, err
}

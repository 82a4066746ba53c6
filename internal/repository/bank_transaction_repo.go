package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kaspit-backend/internal/models"
)

type BankTransactionRepository struct {
	scoped[models.BankTransaction]
}

func NewBankTransactionRepository(db *gorm.DB) *BankTransactionRepository {
	return &BankTransactionRepository{scoped[models.BankTransaction]{db: db}}
}

func (r *BankTransactionRepository) WithTx(tx *gorm.DB) *BankTransactionRepository {
	return NewBankTransactionRepository(tx)
}

// Insert stores tx unless its (company, hash) already exists. It reports
// whether the row was new.
func (r *BankTransactionRepository) Insert(ctx context.Context, tx *models.BankTransaction) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(tx)
	return res.RowsAffected > 0, res.Error
}

func (r *BankTransactionRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.BankTransaction, error) {
	return r.get(r.db.WithContext(ctx), companyID, id)
}

func (r *BankTransactionRepository) Save(ctx context.Context, tx *models.BankTransaction) error {
	return translate(r.db.WithContext(ctx).Save(tx).Error)
}

// TransactionFilter drives the cursor-paged listing.
type TransactionFilter struct {
	BatchID *uuid.UUID
	Status  string
	Search  string
	Cursor  string
	Limit   int
}

// List pages by id: the next page starts after Cursor.
func (r *BankTransactionRepository) List(ctx context.Context, companyID uuid.UUID, f TransactionFilter) ([]models.BankTransaction, string, bool, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	query := company(r.db.WithContext(ctx), companyID).
		Order("id ASC").
		Limit(limit + 1)

	if f.BatchID != nil {
		query = query.Where("import_batch_id = ?", *f.BatchID)
	}
	if f.Status != "" && f.Status != "all" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Cursor != "" {
		query = query.Where("id > ?", f.Cursor)
	}
	// filter by search (description or amount)
	if s := strings.TrimSpace(f.Search); s != "" {
		like := likePattern(strings.ToLower(s))
		query = query.Where(
			"LOWER(description) LIKE ?"+likeEscape+" OR CAST(amount AS TEXT) LIKE ?"+likeEscape,
			like, like,
		)
	}

	var txs []models.BankTransaction
	if err := query.Find(&txs).Error; err != nil {
		return nil, "", false, err
	}

	hasMore := false
	var nextCursor string
	if len(txs) > limit {
		hasMore = true
		nextCursor = txs[limit-1].ID.String()
		txs = txs[:limit]
	}
	return txs, nextCursor, hasMore, nil
}

// ByStatus returns every transaction of the company in the given status.
func (r *BankTransactionRepository) ByStatus(ctx context.Context, companyID uuid.UUID, status models.BankTransactionStatus) ([]models.BankTransaction, error) {
	var out []models.BankTransaction
	err := company(r.db.WithContext(ctx), companyID).
		Where("status = ?", status).
		Order("transaction_date ASC").
		Find(&out).Error
	return out, err
}

// StatRow is one GROUP BY status bucket.
type StatRow struct {
	Status string
	Count  int64
	Sum    decimal.Decimal
}

// Stats aggregates count and amount per status, optionally for one batch.
func (r *BankTransactionRepository) Stats(ctx context.Context, companyID uuid.UUID, batchID *uuid.UUID) ([]StatRow, error) {
	var rows []StatRow
	q := company(r.db.WithContext(ctx).Model(&models.BankTransaction{}), companyID)
	if batchID != nil {
		q = q.Where("import_batch_id = ?", *batchID)
	}
	err := q.Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS sum").
		Group("status").
		Scan(&rows).Error
	for i := range rows {
		rows[i].Sum = rows[i].Sum.Round(2)
	}
	return rows, err
}

// LatestBalance returns the running balance of the most recent row that has one.
func (r *BankTransactionRepository) LatestBalance(ctx context.Context, companyID uuid.UUID) (decimal.NullDecimal, error) {
	var tx models.BankTransaction
	err := company(r.db.WithContext(ctx), companyID).
		Where("balance IS NOT NULL").
		Order("transaction_date DESC, created_at DESC").
		First(&tx).Error
	if err != nil {
		if errors.Is(translate(err), ErrNotFound) {
			return decimal.NullDecimal{}, nil
		}
		return decimal.NullDecimal{}, err
	}
	return tx.Balance, nil
}

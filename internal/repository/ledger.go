package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerFilter narrows income/expense listings. DateTo is inclusive.
type LedgerFilter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	CategoryID *uuid.UUID
	Status     string
	Search     string
	Unlinked   bool
	Limit      int
	Offset     int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

func (f LedgerFilter) apply(q *gorm.DB, counterparty string) *gorm.DB {
	if f.DateFrom != nil {
		q = q.Where("date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("date <= ?", *f.DateTo)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Status != "" && f.Status != "all" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Unlinked {
		q = q.Where("bank_transaction_id IS NULL")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := likePattern(strings.ToLower(s))
		q = q.Where("LOWER(description) LIKE ?"+likeEscape+" OR LOWER("+counterparty+") LIKE ?"+likeEscape, like, like)
	}
	return q
}

func (f LedgerFilter) page() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func listLedger[T any](db *gorm.DB, companyID uuid.UUID, f LedgerFilter, counterparty string) ([]T, int64, error) {
	var total int64
	var model T
	q := f.apply(company(db.Model(&model), companyID), counterparty)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := f.page()
	var out []T
	err := f.apply(company(db, companyID), counterparty).
		Order("date DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, total, err
}

// sumAmount returns COALESCE(SUM(column)) over q.
func sumAmount(q *gorm.DB, column string) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := q.Select("COALESCE(SUM(" + column + "), 0) AS total").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

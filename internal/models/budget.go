package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BudgetPeriod string

const (
	BudgetMonthly BudgetPeriod = "monthly"
	BudgetYearly  BudgetPeriod = "yearly"
)

// Budget caps spending in one expense category. Month is 0 for yearly budgets.
type Budget struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_budget_unique" json:"company_id"`
	CategoryID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_budget_unique" json:"category_id"`
	Period     BudgetPeriod    `gorm:"not null;uniqueIndex:idx_budget_unique" json:"period"`
	Year       int             `gorm:"not null;uniqueIndex:idx_budget_unique" json:"year"`
	Month      int             `gorm:"not null;uniqueIndex:idx_budget_unique" json:"month"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Range returns the half-open date range [from, to) the budget covers.
func (b Budget) Range() (time.Time, time.Time) {
	if b.Period == BudgetYearly {
		from := time.Date(b.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from := time.Date(b.Year, time.Month(b.Month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

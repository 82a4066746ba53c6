package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBimonthly Frequency = "bimonthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyBimonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringExpense is a template that generates concrete Expense rows.
type RecurringExpense struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	CategoryID      *uuid.UUID      `gorm:"type:uuid" json:"category_id,omitempty"`
	SupplierName    string          `json:"supplier_name"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	VATAmount       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"vat_amount"`
	VATDeductible   bool            `gorm:"not null" json:"vat_deductible"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Frequency       Frequency       `gorm:"not null" json:"frequency"`
	StartDate       time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate         *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	NextDate        time.Time       `gorm:"type:date;not null;index" json:"next_date"`
	Occurrences     int             `gorm:"not null;default:0" json:"occurrences"`
	Active          bool            `gorm:"not null;index" json:"active"`
	LastGeneratedAt *time.Time      `json:"last_generated_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type Income struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_income_company_date" json:"company_id"`
	CategoryID        *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Date              time.Time       `gorm:"type:date;not null;index:idx_income_company_date" json:"date"`
	Description       string          `json:"description"`
	CustomerName      string          `gorm:"index" json:"customer_name"`
	InvoiceNumber     string          `json:"invoice_number,omitempty"`
	Amount            decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	VATAmount         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"vat_amount"`
	PaymentMethod     string          `json:"payment_method,omitempty"`
	Status            PaymentStatus   `gorm:"not null;index" json:"status"`
	Notes             string          `json:"notes,omitempty"`
	BankTransactionID *uuid.UUID      `gorm:"type:uuid;index" json:"bank_transaction_id,omitempty"`
	CreatedBy         uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NetAmount is the amount before VAT.
func (i Income) NetAmount() decimal.Decimal {
	return i.Amount.Sub(i.VATAmount)
}

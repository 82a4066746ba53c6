package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Expense struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_expense_company_date" json:"company_id"`
	CategoryID         *uuid.UUID      `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Date               time.Time       `gorm:"type:date;not null;index:idx_expense_company_date;uniqueIndex:idx_expense_recurring_date" json:"date"`
	Description        string          `json:"description"`
	SupplierName       string          `gorm:"index" json:"supplier_name"`
	ReceiptNumber      string          `json:"receipt_number,omitempty"`
	Amount             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	VATAmount          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"vat_amount"`
	VATDeductible      bool            `gorm:"not null" json:"vat_deductible"`
	PaymentMethod      string          `json:"payment_method,omitempty"`
	Status             PaymentStatus   `gorm:"not null;index" json:"status"`
	Notes              string          `json:"notes,omitempty"`
	BankTransactionID  *uuid.UUID      `gorm:"type:uuid;index" json:"bank_transaction_id,omitempty"`
	RecurringExpenseID *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_expense_recurring_date" json:"recurring_expense_id,omitempty"`
	CreatedBy          uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (e Expense) NetAmount() decimal.Decimal {
	return e.Amount.Sub(e.VATAmount)
}

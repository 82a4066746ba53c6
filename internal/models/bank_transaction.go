package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type BankTransactionStatus string

const (
	StatusUnmatched BankTransactionStatus = "unmatched"
	StatusSuggested BankTransactionStatus = "suggested"
	StatusMatched   BankTransactionStatus = "matched"
	// StatusExternal marks rows with no ledger counterpart (bank fees, own transfers).
	StatusExternal BankTransactionStatus = "external"
)

// BankTransaction is one imported bank-statement row. Amount is signed:
// negative is money out, positive is money in.
type BankTransaction struct {
	ID               uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID        uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_bank_tx_company_hash" json:"company_id"`
	ImportBatchID    uuid.UUID             `gorm:"type:uuid;index" json:"import_batch_id"`
	TransactionDate  time.Time             `gorm:"column:transaction_date;type:date;not null;index" json:"transaction_date"`
	Description      string                `json:"description"`
	ReferenceNumber  string                `json:"reference_number,omitempty"`
	Amount           decimal.Decimal       `gorm:"type:numeric(14,2);not null;index" json:"amount"`
	Balance          decimal.NullDecimal   `gorm:"type:numeric(14,2)" json:"balance"`
	Hash             string                `gorm:"not null;uniqueIndex:idx_bank_tx_company_hash" json:"-"`
	Status           BankTransactionStatus `gorm:"not null;index" json:"status"`
	MatchedIncomeID  *uuid.UUID            `gorm:"type:uuid" json:"matched_income_id,omitempty"`
	MatchedExpenseID *uuid.UUID            `gorm:"type:uuid" json:"matched_expense_id,omitempty"`
	ConfidenceScore  float64               `json:"confidence_score"`
	MatchDetails     datatypes.JSON        `json:"match_details,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// Kind is the ledger side this row can reconcile against.
func (t BankTransaction) Kind() EntryKind {
	if t.Amount.IsNegative() {
		return KindExpense
	}
	return KindIncome
}

func (t BankTransaction) IsLinked() bool {
	return t.MatchedIncomeID != nil || t.MatchedExpenseID != nil
}

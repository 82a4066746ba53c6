package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ColumnMapping tells the importer where each field lives in a statement.
// Column references are header names, 1-based indexes, or spreadsheet letters.
type ColumnMapping struct {
	Sheet       string `json:"sheet,omitempty"`
	HeaderRow   int    `json:"header_row,omitempty"`
	Date        string `json:"date" binding:"required"`
	Description string `json:"description" binding:"required"`
	Amount      string `json:"amount,omitempty"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Balance     string `json:"balance,omitempty"`
	DateFormat  string `json:"date_format,omitempty"`
}

// ImportProfile is a saved ColumnMapping, typically one per bank.
type ImportProfile struct {
	ID        uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID                         `gorm:"type:uuid;not null;uniqueIndex:idx_profile_company_name" json:"company_id"`
	Name      string                            `gorm:"not null;uniqueIndex:idx_profile_company_name" json:"name"`
	Mapping   datatypes.JSONType[ColumnMapping] `json:"mapping"`
	CreatedAt time.Time                         `json:"created_at"`
	UpdatedAt time.Time                         `json:"updated_at"`
}

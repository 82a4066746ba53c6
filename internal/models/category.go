package models

import (
	"time"

	"github.com/google/uuid"
)

type EntryKind string

const (
	KindIncome  EntryKind = "income"
	KindExpense EntryKind = "expense"
)

func (k EntryKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_category_company_kind_name" json:"company_id"`
	Kind      EntryKind `gorm:"not null;uniqueIndex:idx_category_company_kind_name" json:"kind"`
	Name      string    `gorm:"not null;uniqueIndex:idx_category_company_kind_name" json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditLink     AuditAction = "link"
	AuditAutoLink AuditAction = "auto_link"
	AuditUnlink   AuditAction = "unlink"
	AuditExternal AuditAction = "external"
	AuditCreate   AuditAction = "create_entry"
	AuditRestore  AuditAction = "restore"
)

// ReconciliationAudit records every change to a bank transaction's link.
type ReconciliationAudit struct {
	ID                uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID         uuid.UUID   `gorm:"type:uuid;not null;index" json:"company_id"`
	BankTransactionID uuid.UUID   `gorm:"type:uuid;index" json:"bank_transaction_id"`
	Action            AuditAction `gorm:"not null" json:"action"`
	EntryKind         EntryKind   `json:"entry_kind,omitempty"`
	PreviousEntryID   *uuid.UUID  `gorm:"type:uuid" json:"previous_entry_id,omitempty"`
	NewEntryID        *uuid.UUID  `gorm:"type:uuid" json:"new_entry_id,omitempty"`
	Score             float64     `json:"score"`
	PerformedBy       uuid.UUID   `gorm:"type:uuid" json:"performed_by"`
	CreatedAt         time.Time   `json:"created_at"`
}

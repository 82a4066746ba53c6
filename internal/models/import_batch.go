package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BatchStatus string

const (
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// ImportBatch tracks one uploaded bank statement.
type ImportBatch struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Filename       string         `json:"filename"`
	Format         string         `json:"format"`
	TotalRows      int            `json:"total_rows"`
	ProcessedCount int            `json:"processed_count"`
	ImportedCount  int            `json:"imported_count"`
	DuplicateCount int            `json:"duplicate_count"`
	SkippedCount   int            `json:"skipped_count"`
	SuggestedCount int            `json:"suggested_count"`
	RowErrors      datatypes.JSON `json:"row_errors,omitempty"`
	Status         BatchStatus    `gorm:"not null;index" json:"status"`
	Error          string         `json:"error,omitempty"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

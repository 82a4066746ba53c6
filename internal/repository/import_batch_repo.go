package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/models"
)

type ImportBatchRepository struct {
	scoped[models.ImportBatch]
}

func NewImportBatchRepository(db *gorm.DB) *ImportBatchRepository {
	return &ImportBatchRepository{scoped[models.ImportBatch]{db: db}}
}

func (r *ImportBatchRepository) Create(ctx context.Context, b *models.ImportBatch) error {
	return translate(r.db.WithContext(ctx).Create(b).Error)
}

func (r *ImportBatchRepository) Get(ctx context.Context, companyID, id uuid.UUID) (*models.ImportBatch, error) {
	return r.get(r.db.WithContext(ctx), companyID, id)
}

func (r *ImportBatchRepository) List(ctx context.Context, companyID uuid.UUID, limit int) ([]models.ImportBatch, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	var out []models.ImportBatch
	err := company(r.db.WithContext(ctx), companyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateProgress updates the processed count of a running batch.
func (r *ImportBatchRepository) UpdateProgress(ctx context.Context, id uuid.UUID, processed int) error {
	return r.db.WithContext(ctx).Model(&models.ImportBatch{}).
		Where("id = ?", id).
		Update("processed_count", processed).
		Error
}

// Finish persists the final counters and status of a batch.
func (r *ImportBatchRepository) Finish(ctx context.Context, b *models.ImportBatch) error {
	now := time.Now().UTC()
	b.CompletedAt = &now
	return r.db.WithContext(ctx).Model(&models.ImportBatch{}).
		Where("id = ?", b.ID).
		Updates(map[string]interface{}{
			"total_rows":      b.TotalRows,
			"processed_count": b.ProcessedCount,
			"imported_count":  b.ImportedCount,
			"duplicate_count": b.DuplicateCount,
			"skipped_count":   b.SkippedCount,
			"suggested_count": b.SuggestedCount,
			"row_errors":      b.RowErrors,
			"status":          b.Status,
			"error":           b.Error,
			"completed_at":    now,
		}).Error
}

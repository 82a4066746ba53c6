package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/models"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) WithTx(tx *gorm.DB) *AuditRepository {
	return NewAuditRepository(tx)
}

func (r *AuditRepository) Record(ctx context.Context, a *models.ReconciliationAudit) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return translate(r.db.WithContext(ctx).Create(a).Error)
}

func (r *AuditRepository) ForTransaction(ctx context.Context, companyID, txID uuid.UUID) ([]models.ReconciliationAudit, error) {
	var out []models.ReconciliationAudit
	err := company(r.db.WithContext(ctx), companyID).
		Where("bank_transaction_id = ?", txID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

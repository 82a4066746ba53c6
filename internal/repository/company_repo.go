package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/models"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// CreateWithOwner inserts the company and its owner membership atomically.
func (r *CompanyRepository) CreateWithOwner(ctx context.Context, c *models.Company, owner *models.Membership) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("creating company: %w", err)
		}
		owner.CompanyID = c.ID
		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("creating owner membership: %w", err)
		}
		return nil
	})
}

func (r *CompanyRepository) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListForUser returns the companies the user is a member of.
func (r *CompanyRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	var out []models.Company
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.company_id = companies.id").
		Where("memberships.user_id = ?", userID).
		Order("companies.name ASC").
		Find(&out).Error
	return out, err
}

func (r *CompanyRepository) Update(ctx context.Context, c *models.Company) error {
	return translate(r.db.WithContext(ctx).Save(c).Error)
}

func (r *CompanyRepository) GetMembership(ctx context.Context, companyID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *CompanyRepository) AddMember(ctx context.Context, m *models.Membership) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *CompanyRepository) ListMembers(ctx context.Context, companyID uuid.UUID) ([]models.Membership, error) {
	var out []models.Membership
	err := company(r.db.WithContext(ctx), companyID).Order("created_at ASC").Find(&out).Error
	return out, err
}

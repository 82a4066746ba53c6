package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// CanWrite reports whether the role may mutate company data.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleEditor
}

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

type VATPeriod string

const (
	VATPeriodMonthly   VATPeriod = "monthly"
	VATPeriodBimonthly VATPeriod = "bimonthly"
)

// Company is the tenant. Every other row carries a CompanyID.
type Company struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	TaxID     string          `gorm:"index" json:"tax_id"`
	VATRate   decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"vat_rate"`
	VATPeriod VATPeriod       `gorm:"not null;default:bimonthly" json:"vat_period"`
	Currency  string          `gorm:"not null;default:ILS" json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Membership struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_company_user" json:"company_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_company_user;index" json:"user_id"`
	Email     string    `json:"email"`
	Role      Role      `gorm:"not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

package company

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
)

// Settings are the owner-editable company fields. Nil fields are left unchanged.
type Settings struct {
	Name      *string
	TaxID     *string
	VATRate   *decimal.Decimal
	VATPeriod *models.VATPeriod
	Currency  *string
}

type CompanyService struct {
	repo           *repository.CompanyRepository
	defaultVATRate decimal.Decimal
}

func NewCompanyService(db *gorm.DB, defaultVATRate decimal.Decimal) *CompanyService {
	return &CompanyService{
		repo:           repository.NewCompanyRepository(db),
		defaultVATRate: defaultVATRate,
	}
}

// Create registers a company and makes the caller its owner.
func (s *CompanyService) Create(ctx context.Context, userID uuid.UUID, email string, in Settings) (*models.Company, error) {
	c := &models.Company{
		ID:        uuid.New(),
		VATRate:   s.defaultVATRate,
		VATPeriod: models.VATPeriodBimonthly,
		Currency:  "ILS",
	}
	if err := apply(c, in); err != nil {
		return nil, err
	}
	if c.Name == "" {
		return nil, apperr.Invalid("name is required")
	}

	owner := &models.Membership{
		ID:     uuid.New(),
		UserID: userID,
		Email:  email,
		Role:   models.RoleOwner,
	}
	if err := s.repo.CreateWithOwner(ctx, c, owner); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CompanyService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *CompanyService) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return s.repo.Get(ctx, id)
}

func (s *CompanyService) Update(ctx context.Context, id uuid.UUID, in Settings) (*models.Company, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(c, in); err != nil {
		return nil, err
	}
	if c.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func apply(c *models.Company, in Settings) error {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.TaxID != nil {
		c.TaxID = strings.TrimSpace(*in.TaxID)
	}
	if in.VATRate != nil {
		if in.VATRate.IsNegative() || in.VATRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return apperr.Invalid("vat_rate must be a fraction between 0 and 1")
		}
		c.VATRate = *in.VATRate
	}
	if in.VATPeriod != nil {
		switch *in.VATPeriod {
		case models.VATPeriodMonthly, models.VATPeriodBimonthly:
			c.VATPeriod = *in.VATPeriod
		default:
			return apperr.Invalid("unknown vat_period %q", *in.VATPeriod)
		}
	}
	if in.Currency != nil {
		cur := strings.ToUpper(strings.TrimSpace(*in.Currency))
		if len(cur) != 3 {
			return apperr.Invalid("currency must be a 3-letter code")
		}
		c.Currency = cur
	}
	return nil
}

// Membership returns the caller's role in a company; ErrNotFound when the
// caller is not a member.
func (s *CompanyService) Membership(ctx context.Context, companyID, userID uuid.UUID) (*models.Membership, error) {
	return s.repo.GetMembership(ctx, companyID, userID)
}

func (s *CompanyService) AddMember(ctx context.Context, companyID, userID uuid.UUID, email string, role models.Role) (*models.Membership, error) {
	if !role.Valid() {
		return nil, apperr.Invalid("unknown role %q", role)
	}
	if userID == uuid.Nil {
		return nil, apperr.Invalid("user_id is required")
	}
	m := &models.Membership{
		ID:        uuid.New(),
		CompanyID: companyID,
		UserID:    userID,
		Email:     strings.TrimSpace(email),
		Role:      role,
	}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CompanyService) ListMembers(ctx context.Context, companyID uuid.UUID) ([]models.Membership, error) {
	return s.repo.ListMembers(ctx, companyID)
}

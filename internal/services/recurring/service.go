package recurring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/services/vat"
)

// TemplateInput is the writable part of a recurring expense.
type TemplateInput struct {
	SupplierName  string
	Description   string
	Amount        decimal.Decimal
	VATAmount     *decimal.Decimal
	VATExempt     bool
	CategoryID    *uuid.UUID
	PaymentMethod string
	Frequency     models.Frequency
	StartDate     time.Time
	EndDate       *time.Time
	Active        *bool
}

// GenerateResult summarizes one generation run.
type GenerateResult struct {
	Templates int `json:"templates"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

type RecurringService struct {
	db           *gorm.DB
	repo         *repository.RecurringExpenseRepository
	expenseRepo  *repository.ExpenseRepository
	companyRepo  *repository.CompanyRepository
	categoryRepo *repository.CategoryRepository
	log          *zap.Logger
}

func NewRecurringService(db *gorm.DB, log *zap.Logger) *RecurringService {
	return &RecurringService{
		db:           db,
		repo:         repository.NewRecurringExpenseRepository(db),
		expenseRepo:  repository.NewExpenseRepository(db),
		companyRepo:  repository.NewCompanyRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		log:          log,
	}
}

func (s *RecurringService) List(ctx context.Context, companyID uuid.UUID, activeOnly bool) ([]models.RecurringExpense, error) {
	return s.repo.List(ctx, companyID, activeOnly)
}

func (s *RecurringService) Get(ctx context.Context, companyID, id uuid.UUID) (*models.RecurringExpense, error) {
	return s.repo.Get(ctx, companyID, id)
}

func (s *RecurringService) validate(ctx context.Context, companyID uuid.UUID, in TemplateInput) (decimal.Decimal, error) {
	if !in.Amount.IsPositive() {
		return decimal.Zero, apperr.Invalid("amount must be positive")
	}
	if !in.Frequency.Valid() {
		return decimal.Zero, apperr.Invalid("unknown frequency %q", in.Frequency)
	}
	if in.StartDate.IsZero() {
		return decimal.Zero, apperr.Invalid("start_date is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return decimal.Zero, apperr.Invalid("end_date is before start_date")
	}
	if in.CategoryID != nil {
		if _, err := s.categoryRepo.OfKind(ctx, companyID, *in.CategoryID, models.KindExpense); err != nil {
			return decimal.Zero, err
		}
	}

	switch {
	case in.VATExempt:
		return decimal.Zero, nil
	case in.VATAmount != nil:
		v := in.VATAmount.Round(2)
		if v.IsNegative() || v.GreaterThan(in.Amount) {
			return decimal.Zero, apperr.Invalid("vat_amount must be between 0 and the amount")
		}
		return v, nil
	}
	company, err := s.companyRepo.Get(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}
	_, v := vat.Split(in.Amount, company.VATRate)
	return v, nil
}

func (s *RecurringService) Create(ctx context.Context, companyID uuid.UUID, in TemplateInput) (*models.RecurringExpense, error) {
	vatAmount, err := s.validate(ctx, companyID, in)
	if err != nil {
		return nil, err
	}
	start := calendar.Day(in.StartDate)
	t := &models.RecurringExpense{
		ID:        uuid.New(),
		CompanyID: companyID,
		StartDate: start,
		NextDate:  start,
		Active:    true,
	}
	apply(t, in, vatAmount)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating recurring expense: %w", err)
	}
	return t, nil
}

// Update rewrites a template. A changed schedule keeps the dates already
// generated: the next date becomes the first new occurrence not before the
// old next date.
func (s *RecurringService) Update(ctx context.Context, companyID, id uuid.UUID, in TemplateInput) (*models.RecurringExpense, error) {
	t, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	vatAmount, err := s.validate(ctx, companyID, in)
	if err != nil {
		return nil, err
	}

	start := calendar.Day(in.StartDate)
	if !start.Equal(calendar.Day(t.StartDate)) || in.Frequency != t.Frequency {
		floor := t.NextDate
		if start.After(floor) {
			floor = start
		}
		t.StartDate = start
		t.Occurrences = indexFrom(start, in.Frequency, floor)
		t.NextDate = Occurrence(start, in.Frequency, t.Occurrences)
	}
	apply(t, in, vatAmount)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("updating recurring expense: %w", err)
	}
	return t, nil
}

func apply(t *models.RecurringExpense, in TemplateInput, vatAmount decimal.Decimal) {
	t.SupplierName = strings.TrimSpace(in.SupplierName)
	t.Description = strings.TrimSpace(in.Description)
	t.Amount = in.Amount.Round(2)
	t.VATAmount = vatAmount
	t.VATDeductible = !in.VATExempt
	t.CategoryID = in.CategoryID
	t.PaymentMethod = in.PaymentMethod
	t.Frequency = in.Frequency
	if in.EndDate != nil {
		end := calendar.Day(*in.EndDate)
		t.EndDate = &end
	} else {
		t.EndDate = nil
	}
	if in.Active != nil {
		t.Active = *in.Active
	}
}

// Delete removes the template. Expenses it already generated stay.
func (s *RecurringService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.repo.Delete(ctx, companyID, id)
}

// Preview lists the template's dates in [from, to].
func (s *RecurringService) Preview(ctx context.Context, companyID, id uuid.UUID, from, to time.Time) ([]time.Time, error) {
	if to.Before(from) {
		return nil, apperr.Invalid("to is before from")
	}
	t, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return Between(t, calendar.Day(from), calendar.Day(to)), nil
}

// GenerateDue creates the expenses of every occurrence up to asOf for the
// active templates that are due. A nil companyID sweeps every tenant.
// Re-running is harmless: an occurrence that already exists is skipped.
func (s *RecurringService) GenerateDue(ctx context.Context, companyID *uuid.UUID, asOf time.Time) (GenerateResult, error) {
	var res GenerateResult
	asOf = calendar.Day(asOf)

	due, err := s.repo.Due(ctx, companyID, asOf)
	if err != nil {
		return res, fmt.Errorf("loading due templates: %w", err)
	}

	for i := range due {
		created, skipped, err := s.generate(ctx, &due[i], asOf)
		if err != nil {
			return res, fmt.Errorf("generating %s: %w", due[i].ID, err)
		}
		res.Templates++
		res.Created += created
		res.Skipped += skipped
	}
	return res, nil
}

func (s *RecurringService) generate(ctx context.Context, t *models.RecurringExpense, asOf time.Time) (created, skipped int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expenses := s.expenseRepo.WithTx(tx)
		for !t.NextDate.After(asOf) && !ended(t, t.NextDate) {
			ok, err := expenses.CreateIfAbsent(ctx, &models.Expense{
				ID:                 uuid.New(),
				CompanyID:          t.CompanyID,
				CategoryID:         t.CategoryID,
				Date:               t.NextDate,
				Description:        t.Description,
				SupplierName:       t.SupplierName,
				Amount:             t.Amount,
				VATAmount:          t.VATAmount,
				VATDeductible:      t.VATDeductible,
				PaymentMethod:      t.PaymentMethod,
				Status:             models.PaymentPending,
				RecurringExpenseID: &t.ID,
			})
			if err != nil {
				return err
			}
			if ok {
				created++
			} else {
				skipped++
			}
			t.Occurrences++
			t.NextDate = Occurrence(t.StartDate, t.Frequency, t.Occurrences)
		}

		if ended(t, t.NextDate) {
			t.Active = false
		}
		now := time.Now().UTC()
		t.LastGeneratedAt = &now
		return s.repo.WithTx(tx).Update(ctx, t)
	})
	if err == nil && created > 0 {
		s.log.Info("recurring expenses generated",
			zap.String("company_id", t.CompanyID.String()),
			zap.String("template_id", t.ID.String()),
			zap.Int("created", created),
			zap.Time("next_date", t.NextDate))
	}
	return created, skipped, err
}

// Run generates due expenses every interval until ctx is cancelled.
func (s *RecurringService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if res, err := s.GenerateDue(ctx, nil, calendar.Today()); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("recurring generation failed", zap.Error(err))
		} else if res.Created > 0 {
			s.log.Info("recurring sweep done",
				zap.Int("templates", res.Templates),
				zap.Int("created", res.Created))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

package budget

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/config"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
)

type State string

const (
	StateOK       State = "ok"
	StateWarning  State = "warning"
	StateExceeded State = "exceeded"
)

// Status is a budget measured against actual spending.
type Status struct {
	Budget       models.Budget   `json:"budget"`
	CategoryName string          `json:"category_name"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Percent      float64         `json:"percent"`
	State        State           `json:"state"`
}

// Evaluate compares spent with the budget amount. warningPercent is the
// share of the budget at which the state turns to warning.
func Evaluate(b models.Budget, spent decimal.Decimal, warningPercent float64) Status {
	st := Status{
		Budget:    b,
		Spent:     spent,
		Remaining: b.Amount.Sub(spent),
		State:     StateOK,
	}
	percent := decimal.Zero
	if b.Amount.IsPositive() {
		percent = spent.Div(b.Amount).Mul(decimal.NewFromInt(100))
		st.Percent, _ = percent.Round(1).Float64()
	}
	// Compare unrounded: 79.96% is still below an 80% threshold.
	switch {
	case spent.GreaterThan(b.Amount):
		st.State = StateExceeded
	case b.Amount.IsPositive() && percent.GreaterThanOrEqual(decimal.NewFromFloat(warningPercent)):
		st.State = StateWarning
	}
	return st
}

// BudgetInput is the writable part of a budget.
type BudgetInput struct {
	CategoryID uuid.UUID
	Period     models.BudgetPeriod
	Year       int
	Month      int
	Amount     decimal.Decimal
	Notes      string
}

type BudgetService struct {
	repo         *repository.BudgetRepository
	categoryRepo *repository.CategoryRepository
	expenseRepo  *repository.ExpenseRepository
	cfg          config.BudgetConfig
}

func NewBudgetService(db *gorm.DB, cfg config.BudgetConfig) *BudgetService {
	return &BudgetService{
		repo:         repository.NewBudgetRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		expenseRepo:  repository.NewExpenseRepository(db),
		cfg:          cfg,
	}
}

func (s *BudgetService) validate(ctx context.Context, companyID uuid.UUID, in BudgetInput) error {
	switch in.Period {
	case models.BudgetMonthly:
		if in.Month < 1 || in.Month > 12 {
			return apperr.Invalid("month must be 1-12 for a monthly budget")
		}
	case models.BudgetYearly:
		if in.Month != 0 {
			return apperr.Invalid("a yearly budget has no month")
		}
	default:
		return apperr.Invalid("unknown period %q", in.Period)
	}
	if in.Year < 2000 || in.Year > 2100 {
		return apperr.Invalid("year %d is out of range", in.Year)
	}
	if !in.Amount.IsPositive() {
		return apperr.Invalid("amount must be positive")
	}
	_, err := s.categoryRepo.OfKind(ctx, companyID, in.CategoryID, models.KindExpense)
	return err
}

func apply(b *models.Budget, in BudgetInput) {
	b.CategoryID = in.CategoryID
	b.Period = in.Period
	b.Year = in.Year
	b.Month = in.Month
	b.Amount = in.Amount.Round(2)
	b.Notes = in.Notes
}

func (s *BudgetService) List(ctx context.Context, companyID uuid.UUID, year, month int) ([]models.Budget, error) {
	return s.repo.ForPeriod(ctx, companyID, year, month)
}

func (s *BudgetService) Create(ctx context.Context, companyID uuid.UUID, in BudgetInput) (*models.Budget, error) {
	if err := s.validate(ctx, companyID, in); err != nil {
		return nil, err
	}
	b := &models.Budget{ID: uuid.New(), CompanyID: companyID}
	apply(b, in)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BudgetService) Update(ctx context.Context, companyID, id uuid.UUID, in BudgetInput) (*models.Budget, error) {
	b, err := s.repo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, companyID, in); err != nil {
		return nil, err
	}
	apply(b, in)
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BudgetService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return s.repo.Delete(ctx, companyID, id)
}

// StatusFor evaluates the monthly budgets of (year, month) and the yearly
// budgets of year.
func (s *BudgetService) StatusFor(ctx context.Context, companyID uuid.UUID, year, month int) ([]Status, error) {
	if month < 0 || month > 12 {
		return nil, apperr.Invalid("month must be 0-12")
	}
	budgets, err := s.repo.ForPeriod(ctx, companyID, year, month)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.List(ctx, companyID, models.KindExpense)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	// One aggregate per distinct range: the month and the year.
	spent := make(map[[2]int64]map[uuid.UUID]decimal.Decimal)
	out := make([]Status, 0, len(budgets))
	for _, b := range budgets {
		from, to := b.Range()
		key := [2]int64{from.Unix(), to.Unix()}
		byCat, ok := spent[key]
		if !ok {
			rows, err := s.expenseRepo.SumByCategory(ctx, companyID, from, to)
			if err != nil {
				return nil, fmt.Errorf("summing expenses: %w", err)
			}
			byCat = make(map[uuid.UUID]decimal.Decimal, len(rows))
			for _, r := range rows {
				byCat[r.CategoryID] = r.Total.Round(2)
			}
			spent[key] = byCat
		}

		st := Evaluate(b, byCat[b.CategoryID], s.cfg.WarningPercent)
		st.CategoryName = names[b.CategoryID]
		out = append(out, st)
	}
	return out, nil
}

package vat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
)

type VATService struct {
	companies *repository.CompanyRepository
	incomes   *repository.IncomeRepository
	expenses  *repository.ExpenseRepository
}

func NewVATService(db *gorm.DB) *VATService {
	return &VATService{
		companies: repository.NewCompanyRepository(db),
		incomes:   repository.NewIncomeRepository(db),
		expenses:  repository.NewExpenseRepository(db),
	}
}

// ReportFor builds the report of the company's period that contains date.
func (s *VATService) ReportFor(ctx context.Context, companyID uuid.UUID, date time.Time) (Report, error) {
	c, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return Report{}, err
	}
	return s.report(ctx, companyID, PeriodFor(date, c.VATPeriod), c.VATPeriod)
}

// ReportByIndex builds the report of the n-th period of year.
func (s *VATService) ReportByIndex(ctx context.Context, companyID uuid.UUID, year, n int) (Report, error) {
	c, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return Report{}, err
	}
	period, err := PeriodByIndex(year, n, c.VATPeriod)
	if err != nil {
		return Report{}, err
	}
	return s.report(ctx, companyID, period, c.VATPeriod)
}

func (s *VATService) report(ctx context.Context, companyID uuid.UUID, period calendar.Range, kind models.VATPeriod) (Report, error) {
	incomes, err := s.incomes.Between(ctx, companyID, period.From, period.To)
	if err != nil {
		return Report{}, fmt.Errorf("loading incomes: %w", err)
	}
	expenses, err := s.expenses.Between(ctx, companyID, period.From, period.To)
	if err != nil {
		return Report{}, fmt.Errorf("loading expenses: %w", err)
	}
	return Compute(period, kind, incomes, expenses), nil
}

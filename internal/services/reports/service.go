// Package reports aggregates the ledger into the cash-flow forecast and the
// monthly dashboard.
package reports

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kaspit-backend/internal/config"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/services/budget"
	"kaspit-backend/internal/services/reconciliation"
	"kaspit-backend/internal/services/vat"
)

type ReportService struct {
	incomes   *repository.IncomeRepository
	expenses  *repository.ExpenseRepository
	templates *repository.RecurringExpenseRepository
	txs       *repository.BankTransactionRepository
	recon     *reconciliation.ReconciliationService
	budgets   *budget.BudgetService
	vat       *vat.VATService
	cfg       config.BusinessConfig
	log       *zap.Logger
}

func NewReportService(db *gorm.DB, cfg config.BusinessConfig, log *zap.Logger) *ReportService {
	return &ReportService{
		incomes:   repository.NewIncomeRepository(db),
		expenses:  repository.NewExpenseRepository(db),
		templates: repository.NewRecurringExpenseRepository(db),
		txs:       repository.NewBankTransactionRepository(db),
		recon:     reconciliation.NewReconciliationService(db, cfg.Matching, log),
		budgets:   budget.NewBudgetService(db, cfg.Budget),
		vat:       vat.NewVATService(db),
		cfg:       cfg,
		log:       log.Named("reports"),
	}
}

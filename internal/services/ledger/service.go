package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/services/vat"
)

// EntryInput is the writable part of an income or expense. Counterparty is
// the customer for incomes and the supplier for expenses; Document is the
// invoice or receipt number.
type EntryInput struct {
	Date          time.Time
	Description   string
	Counterparty  string
	Document      string
	Amount        decimal.Decimal
	VATAmount     *decimal.Decimal
	VATExempt     bool
	VATDeductible *bool
	CategoryID    *uuid.UUID
	PaymentMethod string
	Status        models.PaymentStatus
	Notes         string
}

type LedgerService struct {
	db           *gorm.DB
	incomeRepo   *repository.IncomeRepository
	expenseRepo  *repository.ExpenseRepository
	categoryRepo *repository.CategoryRepository
	companyRepo  *repository.CompanyRepository
	log          *zap.Logger
}

func NewLedgerService(db *gorm.DB, log *zap.Logger) *LedgerService {
	return &LedgerService{
		db:           db,
		incomeRepo:   repository.NewIncomeRepository(db),
		expenseRepo:  repository.NewExpenseRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		companyRepo:  repository.NewCompanyRepository(db),
		log:          log,
	}
}

// resolve validates in and returns the VAT amount to store.
func (s *LedgerService) resolve(ctx context.Context, companyID uuid.UUID, kind models.EntryKind, in EntryInput) (decimal.Decimal, error) {
	if in.Date.IsZero() {
		return decimal.Zero, apperr.Invalid("date is required")
	}
	if !in.Amount.IsPositive() {
		return decimal.Zero, apperr.Invalid("amount must be positive")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return decimal.Zero, apperr.Invalid("amount has more than 2 decimal places")
	}
	switch in.Status {
	case "", models.PaymentPending, models.PaymentPaid:
	default:
		return decimal.Zero, apperr.Invalid("unknown status %q", in.Status)
	}
	if in.CategoryID != nil {
		if _, err := s.categoryRepo.OfKind(ctx, companyID, *in.CategoryID, kind); err != nil {
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

// keepPaid rejects moving a reconciled entry back to pending. An empty
// status leaves the stored one alone.
func keepPaid(linked bool, s models.PaymentStatus) error {
	if linked && s == models.PaymentPending {
		return apperr.Invalid("a reconciled entry stays paid; unlink it first")
	}
	return nil
}

func (s *LedgerService) ListIncomes(ctx context.Context, companyID uuid.UUID, f repository.LedgerFilter) ([]models.Income, int64, error) {
	return s.incomeRepo.List(ctx, companyID, f)
}

func (s *LedgerService) GetIncome(ctx context.Context, companyID, id uuid.UUID) (*models.Income, error) {
	return s.incomeRepo.Get(ctx, companyID, id)
}

func (s *LedgerService) CreateIncome(ctx context.Context, companyID, userID uuid.UUID, in EntryInput) (*models.Income, error) {
	vatAmount, err := s.resolve(ctx, companyID, models.KindIncome, in)
	if err != nil {
		return nil, err
	}
	inc := &models.Income{
		ID:        uuid.New(),
		CompanyID: companyID,
		Status:    models.PaymentPending,
		CreatedBy: userID,
	}
	applyIncome(inc, in, vatAmount)
	if err := s.incomeRepo.Create(ctx, inc); err != nil {
		return nil, fmt.Errorf("creating income: %w", err)
	}
	return inc, nil
}

func (s *LedgerService) UpdateIncome(ctx context.Context, companyID, id uuid.UUID, in EntryInput) (*models.Income, error) {
	inc, err := s.incomeRepo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := keepPaid(inc.BankTransactionID != nil, in.Status); err != nil {
		return nil, err
	}
	vatAmount, err := s.resolve(ctx, companyID, models.KindIncome, in)
	if err != nil {
		return nil, err
	}
	applyIncome(inc, in, vatAmount)
	if err := s.incomeRepo.Update(ctx, inc); err != nil {
		return nil, fmt.Errorf("updating income: %w", err)
	}
	return inc, nil
}

func applyIncome(inc *models.Income, in EntryInput, vatAmount decimal.Decimal) {
	inc.Date = in.Date
	inc.Description = strings.TrimSpace(in.Description)
	inc.CustomerName = strings.TrimSpace(in.Counterparty)
	inc.InvoiceNumber = strings.TrimSpace(in.Document)
	inc.Amount = in.Amount.Round(2)
	inc.VATAmount = vatAmount
	inc.CategoryID = in.CategoryID
	inc.PaymentMethod = in.PaymentMethod
	if in.Status != "" {
		inc.Status = in.Status
	}
	inc.Notes = in.Notes
}

// DeleteIncome removes an income. A reconciled income releases its bank
// transaction back to unmatched in the same database transaction.
func (s *LedgerService) DeleteIncome(ctx context.Context, companyID, userID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		repo := s.incomeRepo.WithTx(db)
		inc, err := repo.Get(ctx, companyID, id)
		if err != nil {
			return err
		}
		if inc.BankTransactionID != nil {
			if err := s.release(ctx, db, companyID, userID, *inc.BankTransactionID, models.KindIncome, inc.ID); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, companyID, id)
	})
}

func (s *LedgerService) ListExpenses(ctx context.Context, companyID uuid.UUID, f repository.LedgerFilter) ([]models.Expense, int64, error) {
	return s.expenseRepo.List(ctx, companyID, f)
}

func (s *LedgerService) GetExpense(ctx context.Context, companyID, id uuid.UUID) (*models.Expense, error) {
	return s.expenseRepo.Get(ctx, companyID, id)
}

func (s *LedgerService) CreateExpense(ctx context.Context, companyID, userID uuid.UUID, in EntryInput) (*models.Expense, error) {
	vatAmount, err := s.resolve(ctx, companyID, models.KindExpense, in)
	if err != nil {
		return nil, err
	}
	exp := &models.Expense{
		ID:        uuid.New(),
		CompanyID: companyID,
		Status:    models.PaymentPending,
		CreatedBy: userID,
	}
	applyExpense(exp, in, vatAmount)
	if err := s.expenseRepo.Create(ctx, exp); err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	return exp, nil
}

func (s *LedgerService) UpdateExpense(ctx context.Context, companyID, id uuid.UUID, in EntryInput) (*models.Expense, error) {
	exp, err := s.expenseRepo.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := keepPaid(exp.BankTransactionID != nil, in.Status); err != nil {
		return nil, err
	}
	vatAmount, err := s.resolve(ctx, companyID, models.KindExpense, in)
	if err != nil {
		return nil, err
	}
	applyExpense(exp, in, vatAmount)
	if err := s.expenseRepo.Update(ctx, exp); err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}
	return exp, nil
}

func applyExpense(exp *models.Expense, in EntryInput, vatAmount decimal.Decimal) {
	exp.Date = in.Date
	exp.Description = strings.TrimSpace(in.Description)
	exp.SupplierName = strings.TrimSpace(in.Counterparty)
	exp.ReceiptNumber = strings.TrimSpace(in.Document)
	exp.Amount = in.Amount.Round(2)
	exp.VATAmount = vatAmount
	exp.VATDeductible = !in.VATExempt
	if in.VATDeductible != nil {
		exp.VATDeductible = *in.VATDeductible
	}
	exp.CategoryID = in.CategoryID
	exp.PaymentMethod = in.PaymentMethod
	if in.Status != "" {
		exp.Status = in.Status
	}
	exp.Notes = in.Notes
}

func (s *LedgerService) DeleteExpense(ctx context.Context, companyID, userID, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		repo := s.expenseRepo.WithTx(db)
		exp, err := repo.Get(ctx, companyID, id)
		if err != nil {
			return err
		}
		if exp.BankTransactionID != nil {
			if err := s.release(ctx, db, companyID, userID, *exp.BankTransactionID, models.KindExpense, exp.ID); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, companyID, id)
	})
}

// release returns a bank transaction to the unmatched pool and audits it.
func (s *LedgerService) release(ctx context.Context, db *gorm.DB, companyID, userID, txID uuid.UUID, kind models.EntryKind, entryID uuid.UUID) error {
	txs := repository.NewBankTransactionRepository(db)
	tx, err := txs.Get(ctx, companyID, txID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	tx.MatchedIncomeID = nil
	tx.MatchedExpenseID = nil
	tx.Status = models.StatusUnmatched
	tx.ConfidenceScore = 0
	tx.MatchDetails = nil
	if err := txs.Save(ctx, tx); err != nil {
		return fmt.Errorf("releasing bank transaction: %w", err)
	}
	s.log.Info("reconciled entry deleted, bank transaction released",
		zap.String("company_id", companyID.String()),
		zap.String("transaction_id", txID.String()),
		zap.String("entry_kind", string(kind)))
	return repository.NewAuditRepository(db).Record(ctx, &models.ReconciliationAudit{
		CompanyID:         companyID,
		BankTransactionID: txID,
		Action:            models.AuditUnlink,
		EntryKind:         kind,
		PreviousEntryID:   &entryID,
		PerformedBy:       userID,
	})
}

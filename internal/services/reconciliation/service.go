package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/config"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/services/matching"
	"kaspit-backend/internal/services/vat"
)

type ReconciliationService struct {
	db              *gorm.DB
	transactionRepo *repository.BankTransactionRepository
	incomeRepo      *repository.IncomeRepository
	expenseRepo     *repository.ExpenseRepository
	companyRepo     *repository.CompanyRepository
	categoryRepo    *repository.CategoryRepository
	auditRepo       *repository.AuditRepository
	engine          *matching.Engine
	cfg             config.MatchingConfig
	log             *zap.Logger
}

func NewReconciliationService(db *gorm.DB, cfg config.MatchingConfig, log *zap.Logger) *ReconciliationService {
	return &ReconciliationService{
		db:              db,
		transactionRepo: repository.NewBankTransactionRepository(db),
		incomeRepo:      repository.NewIncomeRepository(db),
		expenseRepo:     repository.NewExpenseRepository(db),
		companyRepo:     repository.NewCompanyRepository(db),
		categoryRepo:    repository.NewCategoryRepository(db),
		auditRepo:       repository.NewAuditRepository(db),
		engine:          matching.NewEngine(cfg),
		cfg:             cfg,
		log:             log,
	}
}

// Candidates loads the unreconciled ledger entries on tx's side within the
// configured date window.
func (s *ReconciliationService) Candidates(ctx context.Context, tx *models.BankTransaction) ([]matching.Candidate, error) {
	from := tx.TransactionDate.AddDate(0, 0, -s.cfg.WindowDays)
	to := tx.TransactionDate.AddDate(0, 0, s.cfg.WindowDays)

	var out []matching.Candidate
	if tx.Kind() == models.KindExpense {
		rows, err := s.expenseRepo.Unreconciled(ctx, tx.CompanyID, from, to)
		if err != nil {
			return nil, fmt.Errorf("loading expenses: %w", err)
		}
		for _, e := range rows {
			out = append(out, matching.FromExpense(e))
		}
		return out, nil
	}

	rows, err := s.incomeRepo.Unreconciled(ctx, tx.CompanyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("loading incomes: %w", err)
	}
	for _, i := range rows {
		out = append(out, matching.FromIncome(i))
	}
	return out, nil
}

// Suggestions returns the ranked ledger entries for one bank transaction.
func (s *ReconciliationService) Suggestions(ctx context.Context, companyID, txID uuid.UUID) ([]matching.Suggestion, error) {
	tx, err := s.transactionRepo.Get(ctx, companyID, txID)
	if err != nil {
		return nil, err
	}
	return s.suggest(ctx, tx)
}

func (s *ReconciliationService) suggest(ctx context.Context, tx *models.BankTransaction) ([]matching.Suggestion, error) {
	candidates, err := s.Candidates(ctx, tx)
	if err != nil {
		return nil, err
	}
	return s.engine.Suggest(*tx, candidates), nil
}

// MatchTransaction scores tx and records the outcome on the row: suggested
// when at least one candidate clears the threshold, unmatched otherwise.
// Linked and external rows are left alone.
func (s *ReconciliationService) MatchTransaction(ctx context.Context, tx *models.BankTransaction) (*models.BankTransaction, error) {
	if tx.IsLinked() || tx.Status == models.StatusExternal {
		return tx, nil
	}

	suggestions, err := s.suggest(ctx, tx)
	if err != nil {
		return nil, err
	}

	if len(suggestions) == 0 {
		tx.Status = models.StatusUnmatched
		tx.ConfidenceScore = 0
		tx.MatchDetails = nil
	} else {
		best := suggestions[0]
		tx.Status = models.StatusSuggested
		tx.ConfidenceScore = best.Score

		details := map[string]interface{}{
			"entry_kind":       best.Kind,
			"entry_id":         best.ID.String(),
			"entry_name":       best.Counterparty,
			"transaction_desc": tx.Description,
			"amount_score":     best.AmountScore,
			"date_score":       best.DateScore,
			"name_score":       best.NameScore,
			"final_score":      best.Score,
			"candidate_count":  len(suggestions),
		}
		detailsJSON, _ := json.Marshal(details)
		tx.MatchDetails = detailsJSON
	}

	if err := s.transactionRepo.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("saving transaction: %w", err)
	}
	return tx, nil
}

// LinkParams identifies the ledger entry a bank transaction settles.
type LinkParams struct {
	Kind    models.EntryKind
	EntryID uuid.UUID
}

// Link reconciles a bank transaction with an income or expense. The entry
// becomes paid and both rows reference each other.
func (s *ReconciliationService) Link(ctx context.Context, companyID, userID, txID uuid.UUID, p LinkParams) (*models.BankTransaction, error) {
	return s.link(ctx, companyID, userID, txID, p, models.AuditLink, nil)
}

// link runs in one database transaction. A non-nil create inserts the entry
// first, so a failed link leaves no entry behind.
func (s *ReconciliationService) link(ctx context.Context, companyID, userID, txID uuid.UUID, p LinkParams, action models.AuditAction, create func(db *gorm.DB) error) (*models.BankTransaction, error) {
	var linked *models.BankTransaction
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		txs := s.transactionRepo.WithTx(db)
		tx, err := txs.Get(ctx, companyID, txID)
		if err != nil {
			return err
		}
		if tx.IsLinked() {
			return apperr.ErrAlreadyLinked
		}
		if tx.Kind() != p.Kind {
			return apperr.Invalid("%s transaction cannot settle a %s entry", tx.Kind(), p.Kind)
		}
		if create != nil {
			if err := create(db); err != nil {
				return fmt.Errorf("creating %s: %w", p.Kind, err)
			}
		}

		candidate, err := s.attach(ctx, db, companyID, tx.ID, p)
		if err != nil {
			return err
		}
		score := matching.Score(*tx, candidate)

		tx.Status = models.StatusMatched
		tx.ConfidenceScore = score.Score
		if p.Kind == models.KindIncome {
			tx.MatchedIncomeID = &p.EntryID
		} else {
			tx.MatchedExpenseID = &p.EntryID
		}
		if err := txs.Save(ctx, tx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}

		if err := s.auditRepo.WithTx(db).Record(ctx, &models.ReconciliationAudit{
			CompanyID:         companyID,
			BankTransactionID: tx.ID,
			Action:            action,
			EntryKind:         p.Kind,
			NewEntryID:        &p.EntryID,
			Score:             score.Score,
			PerformedBy:       userID,
		}); err != nil {
			return fmt.Errorf("recording audit: %w", err)
		}
		linked = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("bank transaction linked",
		zap.String("company_id", companyID.String()),
		zap.String("transaction_id", txID.String()),
		zap.String("entry_kind", string(p.Kind)),
		zap.String("entry_id", p.EntryID.String()),
		zap.String("action", string(action)))
	return linked, nil
}

// attach marks the ledger entry as paid by txID and returns it as a candidate.
func (s *ReconciliationService) attach(ctx context.Context, db *gorm.DB, companyID, txID uuid.UUID, p LinkParams) (matching.Candidate, error) {
	if p.Kind == models.KindIncome {
		repo := s.incomeRepo.WithTx(db)
		inc, err := repo.Get(ctx, companyID, p.EntryID)
		if err != nil {
			return matching.Candidate{}, err
		}
		if inc.BankTransactionID != nil {
			return matching.Candidate{}, apperr.ErrAlreadyLinked
		}
		inc.BankTransactionID = &txID
		inc.Status = models.PaymentPaid
		if err := repo.Update(ctx, inc); err != nil {
			return matching.Candidate{}, fmt.Errorf("saving income: %w", err)
		}
		return matching.FromIncome(*inc), nil
	}

	repo := s.expenseRepo.WithTx(db)
	exp, err := repo.Get(ctx, companyID, p.EntryID)
	if err != nil {
		return matching.Candidate{}, err
	}
	if exp.BankTransactionID != nil {
		return matching.Candidate{}, apperr.ErrAlreadyLinked
	}
	exp.BankTransactionID = &txID
	exp.Status = models.PaymentPaid
	if err := repo.Update(ctx, exp); err != nil {
		return matching.Candidate{}, fmt.Errorf("saving expense: %w", err)
	}
	return matching.FromExpense(*exp), nil
}

// Unlink removes the reconciliation of a bank transaction and rescores it.
func (s *ReconciliationService) Unlink(ctx context.Context, companyID, userID, txID uuid.UUID) (*models.BankTransaction, error) {
	var unlinked *models.BankTransaction
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		txs := s.transactionRepo.WithTx(db)
		tx, err := txs.Get(ctx, companyID, txID)
		if err != nil {
			return err
		}
		if !tx.IsLinked() {
			return apperr.ErrNotLinked
		}

		kind, entryID := models.KindExpense, tx.MatchedExpenseID
		if tx.MatchedIncomeID != nil {
			kind, entryID = models.KindIncome, tx.MatchedIncomeID
		}
		if err := detach(ctx, db, companyID, kind, *entryID); err != nil {
			return err
		}

		tx.MatchedIncomeID = nil
		tx.MatchedExpenseID = nil
		tx.Status = models.StatusUnmatched
		tx.ConfidenceScore = 0
		if err := txs.Save(ctx, tx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}

		if err := s.auditRepo.WithTx(db).Record(ctx, &models.ReconciliationAudit{
			CompanyID:         companyID,
			BankTransactionID: tx.ID,
			Action:            models.AuditUnlink,
			EntryKind:         kind,
			PreviousEntryID:   entryID,
			PerformedBy:       userID,
		}); err != nil {
			return fmt.Errorf("recording audit: %w", err)
		}
		unlinked = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.MatchTransaction(ctx, unlinked)
}

// detach clears the bank link of a ledger entry. A missing entry is not an
// error: it may have been deleted.
func detach(ctx context.Context, db *gorm.DB, companyID uuid.UUID, kind models.EntryKind, entryID uuid.UUID) error {
	var model interface{} = &models.Expense{}
	if kind == models.KindIncome {
		model = &models.Income{}
	}
	return db.WithContext(ctx).Model(model).
		Where("company_id = ? AND id = ?", companyID, entryID).
		Update("bank_transaction_id", nil).Error
}

// MarkTransactionExternal flags a row that has no ledger counterpart.
func (s *ReconciliationService) MarkTransactionExternal(ctx context.Context, companyID, userID, txID uuid.UUID) (*models.BankTransaction, error) {
	var out *models.BankTransaction
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		txs := s.transactionRepo.WithTx(db)
		tx, err := txs.Get(ctx, companyID, txID)
		if err != nil {
			return err
		}
		if tx.IsLinked() {
			return apperr.ErrAlreadyLinked
		}
		tx.Status = models.StatusExternal
		tx.ConfidenceScore = 0
		if err := txs.Save(ctx, tx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}
		out = tx
		return s.auditRepo.WithTx(db).Record(ctx, &models.ReconciliationAudit{
			CompanyID:         companyID,
			BankTransactionID: tx.ID,
			Action:            models.AuditExternal,
			PerformedBy:       userID,
		})
	})
	return out, err
}

// RestoreTransaction returns an external row to the matching pool. Other
// rows are returned unchanged.
func (s *ReconciliationService) RestoreTransaction(ctx context.Context, companyID, userID, txID uuid.UUID) (*models.BankTransaction, error) {
	var restored *models.BankTransaction
	changed := false
	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		txs := s.transactionRepo.WithTx(db)
		tx, err := txs.Get(ctx, companyID, txID)
		if err != nil {
			return err
		}
		restored = tx
		if tx.Status != models.StatusExternal {
			return nil
		}
		tx.Status = models.StatusUnmatched
		if err := txs.Save(ctx, tx); err != nil {
			return fmt.Errorf("saving transaction: %w", err)
		}
		changed = true
		return s.auditRepo.WithTx(db).Record(ctx, &models.ReconciliationAudit{
			CompanyID:         companyID,
			BankTransactionID: tx.ID,
			Action:            models.AuditRestore,
			PerformedBy:       userID,
		})
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return restored, nil
	}
	return s.MatchTransaction(ctx, restored)
}

// CreateEntryParams describes the ledger entry to create from a bank row.
type CreateEntryParams struct {
	CategoryID   *uuid.UUID
	Counterparty string
	Description  string
	VATAmount    *decimal.Decimal
	VATExempt    bool
	Notes        string
}

// CreateEntryFromTransaction books an unmatched bank row as a new income or
// expense and links the two.
func (s *ReconciliationService) CreateEntryFromTransaction(ctx context.Context, companyID, userID, txID uuid.UUID, p CreateEntryParams) (*models.BankTransaction, error) {
	tx, err := s.transactionRepo.Get(ctx, companyID, txID)
	if err != nil {
		return nil, err
	}
	if tx.IsLinked() {
		return nil, apperr.ErrAlreadyLinked
	}
	kind := tx.Kind()
	if p.CategoryID != nil {
		if _, err := s.categoryRepo.OfKind(ctx, companyID, *p.CategoryID, kind); err != nil {
			return nil, err
		}
	}
	company, err := s.companyRepo.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	gross := tx.Amount.Abs()
	vatAmount := decimal.Zero
	switch {
	case p.VATExempt:
	case p.VATAmount != nil:
		vatAmount = p.VATAmount.Round(2)
		if vatAmount.IsNegative() || vatAmount.GreaterThan(gross) {
			return nil, apperr.Invalid("vat_amount must be between 0 and the amount")
		}
	default:
		_, vatAmount = vat.Split(gross, company.VATRate)
	}

	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		desc = tx.Description
	}
	counterparty := strings.TrimSpace(p.Counterparty)
	if counterparty == "" {
		counterparty = tx.Description
	}

	entryID := uuid.New()
	var create func(db *gorm.DB) error
	if kind == models.KindIncome {
		inc := &models.Income{
			ID:            entryID,
			CompanyID:     companyID,
			CategoryID:    p.CategoryID,
			Date:          tx.TransactionDate,
			Description:   desc,
			CustomerName:  counterparty,
			InvoiceNumber: tx.ReferenceNumber,
			Amount:        gross,
			VATAmount:     vatAmount,
			PaymentMethod: "bank_transfer",
			Status:        models.PaymentPending,
			Notes:         p.Notes,
			CreatedBy:     userID,
		}
		create = func(db *gorm.DB) error { return s.incomeRepo.WithTx(db).Create(ctx, inc) }
	} else {
		exp := &models.Expense{
			ID:            entryID,
			CompanyID:     companyID,
			CategoryID:    p.CategoryID,
			Date:          tx.TransactionDate,
			Description:   desc,
			SupplierName:  counterparty,
			ReceiptNumber: tx.ReferenceNumber,
			Amount:        gross,
			VATAmount:     vatAmount,
			VATDeductible: !p.VATExempt,
			PaymentMethod: "bank_transfer",
			Status:        models.PaymentPending,
			Notes:         p.Notes,
			CreatedBy:     userID,
		}
		create = func(db *gorm.DB) error { return s.expenseRepo.WithTx(db).Create(ctx, exp) }
	}

	return s.link(ctx, companyID, userID, txID, LinkParams{Kind: kind, EntryID: entryID}, models.AuditCreate, create)
}

// BulkAccept links every suggested transaction whose best suggestion scores
// at least minScore and leads the runner-up by the configured margin.
// minScore <= 0 uses the configured auto-link score.
func (s *ReconciliationService) BulkAccept(ctx context.Context, companyID, userID uuid.UUID, minScore float64) (int, error) {
	if minScore <= 0 {
		minScore = s.cfg.AutoLinkScore
	}

	pending, err := s.transactionRepo.ByStatus(ctx, companyID, models.StatusSuggested)
	if err != nil {
		return 0, err
	}

	used := make(map[uuid.UUID]bool)
	linked := 0
	for i := range pending {
		tx := &pending[i]
		suggestions, err := s.suggest(ctx, tx)
		if err != nil {
			return linked, err
		}
		if len(suggestions) == 0 {
			continue
		}
		best := suggestions[0]
		if best.Score < minScore || used[best.ID] {
			continue
		}
		if len(suggestions) > 1 && best.Score-suggestions[1].Score < s.cfg.AutoLinkMargin {
			continue
		}

		_, err = s.link(ctx, companyID, userID, tx.ID, LinkParams{Kind: best.Kind, EntryID: best.ID}, models.AuditAutoLink, nil)
		if errors.Is(err, apperr.ErrConflict) {
			continue
		}
		if err != nil {
			return linked, err
		}
		used[best.ID] = true
		linked++
	}
	return linked, nil
}

// RescoreUnmatched re-runs matching for every unmatched and suggested row,
// typically after ledger entries were added.
func (s *ReconciliationService) RescoreUnmatched(ctx context.Context, companyID uuid.UUID) (int, error) {
	count := 0
	for _, status := range []models.BankTransactionStatus{models.StatusUnmatched, models.StatusSuggested} {
		rows, err := s.transactionRepo.ByStatus(ctx, companyID, status)
		if err != nil {
			return count, err
		}
		for i := range rows {
			if _, err := s.MatchTransaction(ctx, &rows[i]); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *ReconciliationService) GetTransaction(ctx context.Context, companyID, txID uuid.UUID) (*models.BankTransaction, error) {
	return s.transactionRepo.Get(ctx, companyID, txID)
}

func (s *ReconciliationService) History(ctx context.Context, companyID, txID uuid.UUID) ([]models.ReconciliationAudit, error) {
	if _, err := s.transactionRepo.Get(ctx, companyID, txID); err != nil {
		return nil, err
	}
	return s.auditRepo.ForTransaction(ctx, companyID, txID)
}

func (s *ReconciliationService) ListTransactions(ctx context.Context, companyID uuid.UUID, f repository.TransactionFilter) ([]models.BankTransaction, string, bool, error) {
	return s.transactionRepo.List(ctx, companyID, f)
}

type BatchStats struct {
	Total       int64           `json:"total"`
	TotalAmount decimal.Decimal `json:"total_amount"`

	UnmatchedCount int64           `json:"unmatched_count"`
	UnmatchedSum   decimal.Decimal `json:"unmatched_sum"`

	SuggestedCount int64           `json:"suggested_count"`
	SuggestedSum   decimal.Decimal `json:"suggested_sum"`

	MatchedCount int64           `json:"matched_count"`
	MatchedSum   decimal.Decimal `json:"matched_sum"`

	ExternalCount int64           `json:"external_count"`
	ExternalSum   decimal.Decimal `json:"external_sum"`
}

// GetBatchStats aggregates per-status counts and sums, for one batch or the
// whole company when batchID is nil.
func (s *ReconciliationService) GetBatchStats(ctx context.Context, companyID uuid.UUID, batchID *uuid.UUID) (BatchStats, error) {
	stats := BatchStats{
		TotalAmount:  decimal.Zero,
		UnmatchedSum: decimal.Zero,
		SuggestedSum: decimal.Zero,
		MatchedSum:   decimal.Zero,
		ExternalSum:  decimal.Zero,
	}
	rows, err := s.transactionRepo.Stats(ctx, companyID, batchID)
	if err != nil {
		return stats, err
	}

	for _, r := range rows {
		stats.Total += r.Count
		stats.TotalAmount = stats.TotalAmount.Add(r.Sum)

		switch models.BankTransactionStatus(r.Status) {
		case models.StatusUnmatched:
			stats.UnmatchedCount, stats.UnmatchedSum = r.Count, r.Sum
		case models.StatusSuggested:
			stats.SuggestedCount, stats.SuggestedSum = r.Count, r.Sum
		case models.StatusMatched:
			stats.MatchedCount, stats.MatchedSum = r.Count, r.Sum
		case models.StatusExternal:
			stats.ExternalCount, stats.ExternalSum = r.Count, r.Sum
		}
	}
	return stats, nil
}

// OpenCount is the number of bank rows still awaiting reconciliation.
func (s *ReconciliationService) OpenCount(ctx context.Context, companyID uuid.UUID) (int64, error) {
	stats, err := s.GetBatchStats(ctx, companyID, nil)
	if err != nil {
		return 0, err
	}
	return stats.UnmatchedCount + stats.SuggestedCount, nil
}

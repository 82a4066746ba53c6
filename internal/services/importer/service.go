package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/services/reconciliation"
)

const (
	progressEvery    = 100
	previewRows      = 20
	maxRowErrors     = 200
	defaultHeaderRow = 1
)

// RowError explains why a statement line was skipped.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Preview is what a client needs to build a column mapping.
type Preview struct {
	Format    string               `json:"format"`
	Sheet     string               `json:"sheet,omitempty"`
	Sheets    []string             `json:"sheets,omitempty"`
	Headers   []string             `json:"headers"`
	Rows      [][]string           `json:"rows"`
	TotalRows int                  `json:"total_rows"`
	Suggested models.ColumnMapping `json:"suggested_mapping"`
}

type ImportService struct {
	batchRepo   *repository.ImportBatchRepository
	txRepo      *repository.BankTransactionRepository
	profileRepo *repository.ImportProfileRepository
	recon       *reconciliation.ReconciliationService
	readers     *Registry
	log         *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewImportService(db *gorm.DB, recon *reconciliation.ReconciliationService, log *zap.Logger) *ImportService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ImportService{
		batchRepo:   repository.NewImportBatchRepository(db),
		txRepo:      repository.NewBankTransactionRepository(db),
		profileRepo: repository.NewImportProfileRepository(db),
		recon:       recon,
		readers:     DefaultRegistry(),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Wait blocks until every running import has finished.
func (s *ImportService) Wait() {
	s.wg.Wait()
}

// Close interrupts running imports and waits for them to stop.
func (s *ImportService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *ImportService) read(filename string, data []byte, sheet string) (string, *Sheet, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return "", nil, err
	}
	sh, err := s.readers.Get(format).Read(bytes.NewReader(data), sheet)
	if err != nil {
		return "", nil, apperr.Invalid("%v", err)
	}
	return format, sh, nil
}

func splitHeader(rows [][]string, headerRow int) ([]string, [][]string, error) {
	if headerRow <= 0 {
		headerRow = defaultHeaderRow
	}
	if headerRow > len(rows) {
		return nil, nil, apperr.Invalid("header row %d is past the end of the file (%d rows)", headerRow, len(rows))
	}
	return rows[headerRow-1], rows[headerRow:], nil
}

// Preview reads an upload without importing it.
func (s *ImportService) Preview(filename string, data []byte, sheet string, headerRow int) (*Preview, error) {
	format, sh, err := s.read(filename, data, sheet)
	if err != nil {
		return nil, err
	}
	headers, rows, err := splitHeader(sh.Rows, headerRow)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		Format:    format,
		Sheet:     sh.Name,
		Sheets:    sh.Sheets,
		Headers:   headers,
		Rows:      [][]string{},
		Suggested: GuessMapping(headers),
	}
	for _, r := range rows {
		if blank(r) {
			continue
		}
		p.TotalRows++
		if len(p.Rows) < previewRows {
			p.Rows = append(p.Rows, r)
		}
	}
	return p, nil
}

// Start validates the upload and mapping, records a batch and imports the
// rows in the background.
func (s *ImportService) Start(ctx context.Context, companyID, userID uuid.UUID, filename string, data []byte, m models.ColumnMapping) (*models.ImportBatch, error) {
	format, sh, err := s.read(filename, data, m.Sheet)
	if err != nil {
		return nil, err
	}
	headers, rows, err := splitHeader(sh.Rows, m.HeaderRow)
	if err != nil {
		return nil, err
	}
	cols, err := resolve(m, headers)
	if err != nil {
		return nil, err
	}

	firstLine := m.HeaderRow
	if firstLine <= 0 {
		firstLine = defaultHeaderRow
	}
	firstLine++

	var lines []numberedRow
	for i, r := range rows {
		if !blank(r) {
			lines = append(lines, numberedRow{line: firstLine + i, cells: r})
		}
	}

	batch := &models.ImportBatch{
		ID:        uuid.New(),
		CompanyID: companyID,
		Filename:  filename,
		Format:    format,
		TotalRows: len(lines),
		Status:    models.BatchProcessing,
		CreatedBy: userID,
		StartedAt: time.Now().UTC(),
	}
	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("creating batch: %w", err)
	}

	s.log.Info("import started",
		zap.String("company_id", companyID.String()),
		zap.String("batch_id", batch.ID.String()),
		zap.String("filename", filename),
		zap.Int("rows", len(lines)))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(s.ctx, *batch, cols, lines)
	}()
	return batch, nil
}

type numberedRow struct {
	line  int
	cells []string
}

// rowKey identifies a statement line's content; the occurrence index keeps
// identical lines within one file apart.
func rowKey(r Row) string {
	return strings.Join([]string{
		r.Date.Format(calendar.DayLayout),
		r.Amount.StringFixed(2),
		strings.ToLower(strings.Join(strings.Fields(r.Description), " ")),
		r.Reference,
	}, "|")
}

func rowHash(companyID uuid.UUID, key string, occurrence int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", companyID, key, occurrence)))
	return hex.EncodeToString(sum[:])
}

func (s *ImportService) process(ctx context.Context, batch models.ImportBatch, cols columns, lines []numberedRow) {
	var rowErrors []RowError
	seen := make(map[string]int)

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("import panicked", zap.String("batch_id", batch.ID.String()), zap.Any("panic", r))
			batch.Status = models.BatchFailed
			batch.Error = fmt.Sprintf("internal error: %v", r)
		}
		if batch.Status == models.BatchProcessing {
			batch.Status = models.BatchCompleted
		}
		if len(rowErrors) > 0 {
			batch.RowErrors, _ = json.Marshal(rowErrors)
		}
		if err := s.batchRepo.Finish(context.WithoutCancel(ctx), &batch); err != nil {
			s.log.Error("finishing batch", zap.String("batch_id", batch.ID.String()), zap.Error(err))
		}
		s.log.Info("import finished",
			zap.String("batch_id", batch.ID.String()),
			zap.String("status", string(batch.Status)),
			zap.Int("imported", batch.ImportedCount),
			zap.Int("duplicates", batch.DuplicateCount),
			zap.Int("skipped", batch.SkippedCount),
			zap.Int("suggested", batch.SuggestedCount))
	}()

	for _, l := range lines {
		if ctx.Err() != nil {
			batch.Status = models.BatchFailed
			batch.Error = "import interrupted"
			return
		}

		row, err := cols.parse(l.line, l.cells)
		if err != nil {
			batch.SkippedCount++
			if len(rowErrors) < maxRowErrors {
				rowErrors = append(rowErrors, RowError{Row: l.line, Reason: err.Error()})
			}
		} else if err := s.store(ctx, &batch, row, seen); err != nil {
			batch.Status = models.BatchFailed
			batch.Error = err.Error()
			return
		}

		batch.ProcessedCount++
		if batch.ProcessedCount%progressEvery == 0 {
			if err := s.batchRepo.UpdateProgress(ctx, batch.ID, batch.ProcessedCount); err != nil {
				s.log.Warn("updating progress", zap.String("batch_id", batch.ID.String()), zap.Error(err))
			}
		}
	}
}

func (s *ImportService) store(ctx context.Context, batch *models.ImportBatch, row Row, seen map[string]int) error {
	key := rowKey(row)
	occurrence := seen[key]
	seen[key]++

	tx := &models.BankTransaction{
		ID:              uuid.New(),
		CompanyID:       batch.CompanyID,
		ImportBatchID:   batch.ID,
		TransactionDate: row.Date,
		Description:     row.Description,
		ReferenceNumber: row.Reference,
		Amount:          row.Amount,
		Balance:         row.Balance,
		Hash:            rowHash(batch.CompanyID, key, occurrence),
		Status:          models.StatusUnmatched,
	}
	inserted, err := s.txRepo.Insert(ctx, tx)
	if err != nil {
		return fmt.Errorf("row %d: %w", row.Line, err)
	}
	if !inserted {
		batch.DuplicateCount++
		return nil
	}
	batch.ImportedCount++

	scored, err := s.recon.MatchTransaction(ctx, tx)
	if err != nil {
		s.log.Warn("scoring imported transaction",
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
		return nil
	}
	if scored.Status == models.StatusSuggested {
		batch.SuggestedCount++
	}
	return nil
}

func (s *ImportService) GetBatch(ctx context.Context, companyID, id uuid.UUID) (*models.ImportBatch, error) {
	return s.batchRepo.Get(ctx, companyID, id)
}

func (s *ImportService) ListBatches(ctx context.Context, companyID uuid.UUID, limit int) ([]models.ImportBatch, error) {
	return s.batchRepo.List(ctx, companyID, limit)
}

func (s *ImportService) ListProfiles(ctx context.Context, companyID uuid.UUID) ([]models.ImportProfile, error) {
	return s.profileRepo.List(ctx, companyID)
}

func (s *ImportService) GetProfile(ctx context.Context, companyID, id uuid.UUID) (*models.ImportProfile, error) {
	return s.profileRepo.Get(ctx, companyID, id)
}

// SaveProfile creates a profile, or replaces one when id is given.
func (s *ImportService) SaveProfile(ctx context.Context, companyID uuid.UUID, id *uuid.UUID, name string, m models.ColumnMapping) (*models.ImportProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if strings.TrimSpace(m.Date) == "" || strings.TrimSpace(m.Description) == "" {
		return nil, apperr.Invalid("date and description columns are required")
	}
	if m.Amount == "" && m.Debit == "" && m.Credit == "" {
		return nil, apperr.Invalid("map either an amount column or debit/credit columns")
	}

	p := &models.ImportProfile{ID: uuid.New(), CompanyID: companyID}
	if id != nil {
		existing, err := s.profileRepo.Get(ctx, companyID, *id)
		if err != nil {
			return nil, err
		}
		p = existing
	}
	p.Name = name
	p.Mapping = datatypes.NewJSONType(m)
	if err := s.profileRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ImportService) DeleteProfile(ctx context.Context, companyID, id uuid.UUID) error {
	return s.profileRepo.Delete(ctx, companyID, id)
}

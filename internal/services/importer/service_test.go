package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/config"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/services/reconciliation"
	"kaspit-backend/internal/testutil"
)

func newImportService(t *testing.T) (*ImportService, *gorm.DB, uuid.UUID, uuid.UUID) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	recon := reconciliation.NewReconciliationService(db, config.DefaultBusiness().Matching, zap.NewNop())
	return NewImportService(db, recon, zap.NewNop()), db, companyID, userID
}

const statement = `תאריך,תיאור,אסמכתא,חובה,זכות,יתרה
05/03/2026,בזק בינלאומי,1001,120.50,,"9,879.50"
05/03/2026,עמלת ערוץ ישיר,,6.90,,"9,872.60"
05/03/2026,עמלת ערוץ ישיר,,6.90,,"9,865.70"
not a date,broken row,,1.00,,
07/03/2026,ACME Ltd,2002,,"1,180.00","11,045.70"
08/03/2026,empty amounts,,,,
`

var statementMapping = models.ColumnMapping{
	Date:        "תאריך",
	Description: "תיאור",
	Reference:   "אסמכתא",
	Debit:       "חובה",
	Credit:      "זכות",
	Balance:     "יתרה",
}

func TestImport_CSV(t *testing.T) {
	svc, db, companyID, userID := newImportService(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()

	exp := models.Expense{
		ID:           uuid.New(),
		CompanyID:    companyID,
		Date:         testutil.Day(2026, 3, 4),
		SupplierName: "בזק",
		Amount:       testutil.Dec("120.50"),
		Status:       models.PaymentPending,
	}
	require.NoError(t, db.Create(&exp).Error)

	batch, err := svc.Start(ctx, companyID, userID, "leumi.csv", []byte(statement), statementMapping)
	require.NoError(t, err)
	assert.Equal(t, models.BatchProcessing, batch.Status)
	assert.Equal(t, 6, batch.TotalRows)
	svc.Wait()

	got, err := svc.GetBatch(ctx, companyID, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BatchCompleted, got.Status)
	assert.Equal(t, 6, got.ProcessedCount)
	assert.Equal(t, 4, got.ImportedCount)
	assert.Equal(t, 0, got.DuplicateCount)
	assert.Equal(t, 2, got.SkippedCount)
	assert.Equal(t, 1, got.SuggestedCount)
	assert.NotNil(t, got.CompletedAt)

	var rowErrors []RowError
	require.NoError(t, json.Unmarshal(got.RowErrors, &rowErrors))
	require.Len(t, rowErrors, 2)
	assert.Equal(t, 5, rowErrors[0].Row)
	assert.Contains(t, rowErrors[0].Reason, "unrecognized date")
	assert.Equal(t, RowError{Row: 7, Reason: "missing debit and credit"}, rowErrors[1])

	txs, _, _, err := repository.NewBankTransactionRepository(db).List(ctx, companyID, repository.TransactionFilter{BatchID: &batch.ID})
	require.NoError(t, err)
	require.Len(t, txs, 4)

	var income *models.BankTransaction
	for i := range txs {
		if txs[i].Amount.IsPositive() {
			income = &txs[i]
		}
	}
	require.NotNil(t, income)
	assert.Equal(t, "1180.00", income.Amount.StringFixed(2))
	assert.Equal(t, "2002", income.ReferenceNumber)
	assert.Equal(t, "11045.70", income.Balance.Decimal.StringFixed(2))

	// The same statement again adds nothing.
	again, err := svc.Start(ctx, companyID, userID, "leumi.csv", []byte(statement), statementMapping)
	require.NoError(t, err)
	svc.Wait()

	got, err = svc.GetBatch(ctx, companyID, again.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ImportedCount)
	assert.Equal(t, 4, got.DuplicateCount)
}

func TestImport_ProgressOnLargeFile(t *testing.T) {
	svc, _, companyID, userID := newImportService(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()

	var b strings.Builder
	b.WriteString("Date,Description,Amount\n")
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "%02d/04/2026,Card purchase %d,-%d.00\n", i%28+1, i, i+1)
	}

	batch, err := svc.Start(ctx, companyID, userID, "big.csv", []byte(b.String()),
		models.ColumnMapping{Date: "Date", Description: "Description", Amount: "Amount"})
	require.NoError(t, err)
	svc.Wait()

	got, err := svc.GetBatch(ctx, companyID, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 250, got.TotalRows)
	assert.Equal(t, 250, got.ProcessedCount)
	assert.Equal(t, 250, got.ImportedCount)
}

func TestImport_XLSXWithDateFormat(t *testing.T) {
	svc, db, companyID, userID := newImportService(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx := context.Background()

	data := xlsxFile(t, "Sheet1", [][]interface{}{
		{"Date", "Description", "Amount"},
		{46086, "Bezeq", -120.5},
		{"06/03/2026", "ACME", 300},
	})
	batch, err := svc.Start(ctx, companyID, userID, "statement.xlsx", data, models.ColumnMapping{
		Date: "Date", Description: "Description", Amount: "Amount", DateFormat: "dd/mm/yyyy",
	})
	require.NoError(t, err)
	svc.Wait()

	got, err := svc.GetBatch(ctx, companyID, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ImportedCount)
	assert.Equal(t, 0, got.SkippedCount)

	var dates []models.BankTransaction
	require.NoError(t, db.Where("company_id = ?", companyID).Order("transaction_date").Find(&dates).Error)
	require.Len(t, dates, 2)
	assert.True(t, testutil.Day(2026, 3, 5).Equal(dates[0].TransactionDate))
	assert.True(t, testutil.Day(2026, 3, 6).Equal(dates[1].TransactionDate))
}

func TestStart_RejectsBadMapping(t *testing.T) {
	svc, _, companyID, userID := newImportService(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	_, err := svc.Start(context.Background(), companyID, userID, "x.csv", []byte("a,b\n1,2\n"),
		models.ColumnMapping{Date: "Date", Description: "b", Amount: "a"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Start(context.Background(), companyID, userID, "x.csv", []byte("a,b\n"),
		models.ColumnMapping{Date: "a", Description: "b", Amount: "a", HeaderRow: 3})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	batches, err := svc.ListBatches(context.Background(), companyID, 10)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestPreview(t *testing.T) {
	svc, _, _, _ := newImportService(t)

	p, err := svc.Preview("leumi.csv", []byte(statement), "", 0)
	require.NoError(t, err)
	assert.Equal(t, "csv", p.Format)
	assert.Equal(t, []string{"תאריך", "תיאור", "אסמכתא", "חובה", "זכות", "יתרה"}, p.Headers)
	assert.Equal(t, 6, p.TotalRows)
	assert.Len(t, p.Rows, 6)
	assert.Equal(t, statementMapping, p.Suggested)
}

func TestPreview_XLSXHeaderRow(t *testing.T) {
	svc, _, _, _ := newImportService(t)
	data := xlsxFile(t, "Sheet1", [][]interface{}{
		{"Bank Leumi statement"},
		{"Date", "Description", "Amount"},
		{46086, "Bezeq", -120.5},
	})

	p, err := svc.Preview("statement.xlsx", data, "", 2)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", p.Format)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, p.Headers)
	assert.Equal(t, 1, p.TotalRows)
}

func TestProfiles(t *testing.T) {
	svc, _, companyID, _ := newImportService(t)
	ctx := context.Background()

	p, err := svc.SaveProfile(ctx, companyID, nil, "Leumi", statementMapping)
	require.NoError(t, err)

	_, err = svc.SaveProfile(ctx, companyID, nil, "Leumi", statementMapping)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.SaveProfile(ctx, companyID, nil, "Bad", models.ColumnMapping{Date: "a", Description: "b"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	updated := statementMapping
	updated.DateFormat = "dd/mm/yyyy"
	_, err = svc.SaveProfile(ctx, companyID, &p.ID, "Leumi business", updated)
	require.NoError(t, err)

	got, err := svc.GetProfile(ctx, companyID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Leumi business", got.Name)
	assert.Equal(t, "dd/mm/yyyy", got.Mapping.Data().DateFormat)

	list, err := svc.ListProfiles(ctx, companyID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteProfile(ctx, companyID, p.ID))
	assert.ErrorIs(t, svc.DeleteProfile(ctx, companyID, p.ID), repository.ErrNotFound)
}

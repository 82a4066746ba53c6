package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/testutil"
)

func TestCreateIncome_DerivesVAT(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	svc := NewLedgerService(db, zap.NewNop())

	inc, err := svc.CreateIncome(context.Background(), companyID, userID, EntryInput{
		Date:         testutil.Day(2026, 2, 3),
		Counterparty: "  ACME Ltd ",
		Amount:       testutil.Dec("1180"),
	})
	require.NoError(t, err)
	assert.Equal(t, "180.00", inc.VATAmount.StringFixed(2))
	assert.Equal(t, "1000.00", inc.NetAmount().StringFixed(2))
	assert.Equal(t, "ACME Ltd", inc.CustomerName)
	assert.Equal(t, models.PaymentPending, inc.Status)
}

func TestCreateExpense_VATOptions(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	svc := NewLedgerService(db, zap.NewNop())
	ctx := context.Background()

	exempt, err := svc.CreateExpense(ctx, companyID, userID, EntryInput{
		Date:      testutil.Day(2026, 2, 3),
		Amount:    testutil.Dec("500"),
		VATExempt: true,
	})
	require.NoError(t, err)
	assert.True(t, exempt.VATAmount.IsZero())
	assert.False(t, exempt.VATDeductible)

	explicit := testutil.Dec("10")
	exp, err := svc.CreateExpense(ctx, companyID, userID, EntryInput{
		Date:      testutil.Day(2026, 2, 3),
		Amount:    testutil.Dec("500"),
		VATAmount: &explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", exp.VATAmount.StringFixed(2))
	assert.True(t, exp.VATDeductible)

	stored, err := svc.GetExpense(ctx, companyID, exp.ID)
	require.NoError(t, err)
	assert.True(t, stored.VATDeductible)
}

func TestCreate_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	svc := NewLedgerService(db, zap.NewNop())
	ctx := context.Background()

	tooMuch := testutil.Dec("600")
	cases := map[string]EntryInput{
		"zero amount":     {Date: testutil.Day(2026, 1, 1), Amount: testutil.Dec("0")},
		"negative amount": {Date: testutil.Day(2026, 1, 1), Amount: testutil.Dec("-5")},
		"three decimals":  {Date: testutil.Day(2026, 1, 1), Amount: testutil.Dec("1.005")},
		"missing date":    {Amount: testutil.Dec("5")},
		"vat over amount": {Date: testutil.Day(2026, 1, 1), Amount: testutil.Dec("500"), VATAmount: &tooMuch},
		"bad status":      {Date: testutil.Day(2026, 1, 1), Amount: testutil.Dec("5"), Status: "lost"},
	}
	for name, in := range cases {
		_, err := svc.CreateIncome(ctx, companyID, userID, in)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, name)
	}
}

func TestCreate_CategoryKindMustMatch(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	svc := NewLedgerService(db, zap.NewNop())

	cat := models.Category{ID: uuid.New(), CompanyID: companyID, Kind: models.KindExpense, Name: "Rent"}
	require.NoError(t, db.Create(&cat).Error)

	_, err := svc.CreateIncome(context.Background(), companyID, userID, EntryInput{
		Date:       testutil.Day(2026, 1, 1),
		Amount:     testutil.Dec("100"),
		CategoryID: &cat.ID,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	otherCompany, _ := testutil.Company(t, db)
	_, err = svc.CreateExpense(context.Background(), otherCompany, userID, EntryInput{
		Date:       testutil.Day(2026, 1, 1),
		Amount:     testutil.Dec("100"),
		CategoryID: &cat.ID,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateIncome(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	svc := NewLedgerService(db, zap.NewNop())
	ctx := context.Background()

	inc, err := svc.CreateIncome(ctx, companyID, userID, EntryInput{Date: testutil.Day(2026, 1, 1), Amount: testutil.Dec("118")})
	require.NoError(t, err)

	updated, err := svc.UpdateIncome(ctx, companyID, inc.ID, EntryInput{
		Date:   testutil.Day(2026, 1, 2),
		Amount: testutil.Dec("236"),
		Status: models.PaymentPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, "36.00", updated.VATAmount.StringFixed(2))
	assert.Equal(t, models.PaymentPaid, updated.Status)
	assert.Equal(t, userID, updated.CreatedBy)

	_, err = svc.UpdateIncome(ctx, uuid.New(), inc.ID, EntryInput{Date: testutil.Day(2026, 1, 2), Amount: testutil.Dec("1")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdate_ReconciledEntryStaysPaid(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	svc := NewLedgerService(db, zap.NewNop())
	ctx := context.Background()

	in := EntryInput{Date: testutil.Day(2026, 3, 1), Amount: testutil.Dec("118")}
	inc, err := svc.CreateIncome(ctx, companyID, userID, in)
	require.NoError(t, err)

	txID := uuid.New()
	inc.BankTransactionID = &txID
	inc.Status = models.PaymentPaid
	require.NoError(t, db.Save(inc).Error)

	in.Notes = "paid by transfer"
	updated, err := svc.UpdateIncome(ctx, companyID, inc.ID, in)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.Status)
	assert.Equal(t, &txID, updated.BankTransactionID)

	in.Status = models.PaymentPending
	_, err = svc.UpdateIncome(ctx, companyID, inc.ID, in)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	exp, err := svc.CreateExpense(ctx, companyID, userID, EntryInput{Date: testutil.Day(2026, 3, 1), Amount: testutil.Dec("50")})
	require.NoError(t, err)
	exp.BankTransactionID = &txID
	exp.Status = models.PaymentPaid
	require.NoError(t, db.Save(exp).Error)

	_, err = svc.UpdateExpense(ctx, companyID, exp.ID, EntryInput{
		Date: testutil.Day(2026, 3, 1), Amount: testutil.Dec("50"), Status: models.PaymentPending,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	stored, err := svc.GetExpense(ctx, companyID, exp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, stored.Status)
}

func TestListExpenses_Filters(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	svc := NewLedgerService(db, zap.NewNop())
	ctx := context.Background()

	for i, supplier := range []string{"Bezeq", "Partner", "Bezeq International"} {
		_, err := svc.CreateExpense(ctx, companyID, userID, EntryInput{
			Date:         testutil.Day(2026, 3, 1+i),
			Counterparty: supplier,
			Amount:       testutil.Dec("100"),
		})
		require.NoError(t, err)
	}

	rows, total, err := svc.ListExpenses(ctx, companyID, repository.LedgerFilter{Search: "bezeq"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Bezeq International", rows[0].SupplierName)

	from := testutil.Day(2026, 3, 2)
	rows, total, err = svc.ListExpenses(ctx, companyID, repository.LedgerFilter{DateFrom: &from, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 1)

	_, err = svc.CreateExpense(ctx, companyID, userID, EntryInput{
		Date:        testutil.Day(2026, 3, 9),
		Description: "10% off_promo",
		Amount:      testutil.Dec("90"),
	})
	require.NoError(t, err)

	for _, search := range []string{"%", "_", "0%"} {
		rows, total, err = svc.ListExpenses(ctx, companyID, repository.LedgerFilter{Search: search})
		require.NoError(t, err, search)
		assert.Equal(t, int64(1), total, search)
		require.Len(t, rows, 1, search)
		assert.Equal(t, "10% off_promo", rows[0].Description)
	}
}

func TestDeleteExpense_ReleasesBankTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	svc := NewLedgerService(db, zap.NewNop())
	ctx := context.Background()

	exp, err := svc.CreateExpense(ctx, companyID, userID, EntryInput{Date: testutil.Day(2026, 3, 1), Amount: testutil.Dec("100")})
	require.NoError(t, err)

	tx := models.BankTransaction{
		ID:               uuid.New(),
		CompanyID:        companyID,
		TransactionDate:  testutil.Day(2026, 3, 1),
		Amount:           testutil.Dec("-100"),
		Hash:             "h1",
		Status:           models.StatusMatched,
		MatchedExpenseID: &exp.ID,
		ConfidenceScore:  100,
	}
	require.NoError(t, db.Create(&tx).Error)
	exp.BankTransactionID = &tx.ID
	require.NoError(t, db.Save(exp).Error)

	require.NoError(t, svc.DeleteExpense(ctx, companyID, userID, exp.ID))

	_, err = svc.GetExpense(ctx, companyID, exp.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	released, err := repository.NewBankTransactionRepository(db).Get(ctx, companyID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnmatched, released.Status)
	assert.Nil(t, released.MatchedExpenseID)

	audit, err := repository.NewAuditRepository(db).ForTransaction(ctx, companyID, tx.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, models.AuditUnlink, audit[0].Action)

	assert.ErrorIs(t, svc.DeleteExpense(ctx, companyID, userID, exp.ID), repository.ErrNotFound)
}

func TestCategoryService(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, userID := testutil.Company(t, db)
	cats := NewCategoryService(db)
	ctx := context.Background()

	rent, err := cats.Create(ctx, companyID, models.KindExpense, " Rent ", "#aa0000")
	require.NoError(t, err)
	assert.Equal(t, "Rent", rent.Name)

	_, err = cats.Create(ctx, companyID, models.KindExpense, "Rent", "")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// Same name on the other side is allowed.
	_, err = cats.Create(ctx, companyID, models.KindIncome, "Rent", "")
	require.NoError(t, err)

	_, err = cats.Create(ctx, companyID, "asset", "Cash", "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	list, err := cats.List(ctx, companyID, models.KindExpense)
	require.NoError(t, err)
	require.Len(t, list, 1)

	exp, err := NewLedgerService(db, zap.NewNop()).CreateExpense(ctx, companyID, userID, EntryInput{
		Date:       testutil.Day(2026, 1, 1),
		Amount:     testutil.Dec("100"),
		CategoryID: &rent.ID,
	})
	require.NoError(t, err)

	require.NoError(t, cats.Delete(ctx, companyID, rent.ID))
	stored, err := repository.NewExpenseRepository(db).Get(ctx, companyID, exp.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CategoryID)

	assert.ErrorIs(t, cats.Delete(ctx, companyID, rent.ID), repository.ErrNotFound)
}

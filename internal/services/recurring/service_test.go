package recurring

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/repository"
	"kaspit-backend/internal/testutil"
)

func TestOccurrence(t *testing.T) {
	start := testutil.Day(2026, 1, 31)
	assert.Equal(t, testutil.Day(2026, 2, 28), Occurrence(start, models.FrequencyMonthly, 1))
	assert.Equal(t, testutil.Day(2026, 3, 31), Occurrence(start, models.FrequencyMonthly, 2))
	assert.Equal(t, testutil.Day(2026, 3, 31), Occurrence(start, models.FrequencyBimonthly, 1))
	assert.Equal(t, testutil.Day(2026, 4, 30), Occurrence(start, models.FrequencyQuarterly, 1))
	assert.Equal(t, testutil.Day(2027, 1, 31), Occurrence(start, models.FrequencyYearly, 1))
	assert.Equal(t, testutil.Day(2026, 2, 14), Occurrence(start, models.FrequencyWeekly, 2))
	assert.Equal(t, testutil.Day(2028, 2, 29), Occurrence(testutil.Day(2024, 2, 29), models.FrequencyYearly, 4))
}

func TestBetween(t *testing.T) {
	end := testutil.Day(2026, 5, 10)
	tmpl := &models.RecurringExpense{
		StartDate: testutil.Day(2026, 1, 10),
		Frequency: models.FrequencyMonthly,
		EndDate:   &end,
	}
	got := Between(tmpl, testutil.Day(2026, 2, 1), testutil.Day(2026, 12, 31))
	assert.Equal(t, []time.Time{
		testutil.Day(2026, 2, 10),
		testutil.Day(2026, 3, 10),
		testutil.Day(2026, 4, 10),
		testutil.Day(2026, 5, 10),
	}, got)

	assert.Empty(t, Between(tmpl, testutil.Day(2025, 1, 1), testutil.Day(2026, 1, 9)))
}

func newService(t *testing.T) (*RecurringService, uuid.UUID) {
	db := testutil.NewDB(t)
	companyID, _ := testutil.Company(t, db)
	return NewRecurringService(db, zap.NewNop()), companyID
}

func TestCreate_Validation(t *testing.T) {
	svc, companyID := newService(t)
	ctx := context.Background()

	before := testutil.Day(2025, 12, 1)
	cases := map[string]TemplateInput{
		"no amount":      {Frequency: models.FrequencyMonthly, StartDate: testutil.Day(2026, 1, 1)},
		"bad frequency":  {Amount: testutil.Dec("10"), Frequency: "daily", StartDate: testutil.Day(2026, 1, 1)},
		"no start":       {Amount: testutil.Dec("10"), Frequency: models.FrequencyMonthly},
		"end before one": {Amount: testutil.Dec("10"), Frequency: models.FrequencyMonthly, StartDate: testutil.Day(2026, 1, 1), EndDate: &before},
	}
	for name, in := range cases {
		_, err := svc.Create(ctx, companyID, in)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, name)
	}

	tmpl, err := svc.Create(ctx, companyID, TemplateInput{
		SupplierName: "WeWork",
		Amount:       testutil.Dec("2360"),
		Frequency:    models.FrequencyMonthly,
		StartDate:    testutil.Day(2026, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "360.00", tmpl.VATAmount.StringFixed(2))
	assert.True(t, tmpl.Active)
	assert.True(t, tmpl.VATDeductible)
	assert.Equal(t, testutil.Day(2026, 1, 1), tmpl.NextDate)
}

func TestCreate_CategoryStaysInCompany(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, _ := testutil.Company(t, db)
	otherCompany, _ := testutil.Company(t, db)
	svc := NewRecurringService(db, zap.NewNop())
	ctx := context.Background()

	foreign := models.Category{ID: uuid.New(), CompanyID: otherCompany, Kind: models.KindExpense, Name: "Rent"}
	sales := models.Category{ID: uuid.New(), CompanyID: companyID, Kind: models.KindIncome, Name: "Sales"}
	rent := models.Category{ID: uuid.New(), CompanyID: companyID, Kind: models.KindExpense, Name: "Rent"}
	for _, c := range []*models.Category{&foreign, &sales, &rent} {
		require.NoError(t, db.Create(c).Error)
	}

	in := TemplateInput{
		SupplierName: "Landlord",
		Amount:       testutil.Dec("5900"),
		Frequency:    models.FrequencyMonthly,
		StartDate:    testutil.Day(2026, 1, 1),
		CategoryID:   &foreign.ID,
	}
	_, err := svc.Create(ctx, companyID, in)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	in.CategoryID = &sales.ID
	_, err = svc.Create(ctx, companyID, in)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	in.CategoryID = &rent.ID
	tmpl, err := svc.Create(ctx, companyID, in)
	require.NoError(t, err)

	in.CategoryID = &foreign.ID
	_, err = svc.Update(ctx, companyID, tmpl.ID, in)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := svc.Get(ctx, companyID, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, &rent.ID, stored.CategoryID)
}

func TestGenerateDue_CatchUp(t *testing.T) {
	svc, companyID := newService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, companyID, TemplateInput{
		SupplierName: "Landlord",
		Description:  "Rent",
		Amount:       testutil.Dec("5000"),
		VATExempt:    true,
		Frequency:    models.FrequencyMonthly,
		StartDate:    testutil.Day(2026, 1, 31),
	})
	require.NoError(t, err)

	res, err := svc.GenerateDue(ctx, &companyID, testutil.Day(2026, 4, 15))
	require.NoError(t, err)
	assert.Equal(t, GenerateResult{Templates: 1, Created: 3}, res)

	got, err := svc.Get(ctx, companyID, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Occurrences)
	assert.True(t, got.NextDate.Equal(testutil.Day(2026, 4, 30)))
	assert.NotNil(t, got.LastGeneratedAt)

	expenses, total, err := repository.NewExpenseRepository(svc.db).List(ctx, companyID, repository.LedgerFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.True(t, expenses[0].Date.Equal(testutil.Day(2026, 3, 31)))
	assert.Equal(t, "Landlord", expenses[0].SupplierName)
	assert.False(t, expenses[0].VATDeductible)
	require.NotNil(t, expenses[0].RecurringExpenseID)
	assert.Equal(t, tmpl.ID, *expenses[0].RecurringExpenseID)

	// Nothing new is due.
	res, err = svc.GenerateDue(ctx, &companyID, testutil.Day(2026, 4, 15))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
}

func TestGenerateDue_Idempotent(t *testing.T) {
	svc, companyID := newService(t)
	ctx := context.Background()

	tmpl, err := svc.Create(ctx, companyID, TemplateInput{
		Amount:    testutil.Dec("100"),
		Frequency: models.FrequencyWeekly,
		StartDate: testutil.Day(2026, 3, 2),
	})
	require.NoError(t, err)

	res, err := svc.GenerateDue(ctx, nil, testutil.Day(2026, 3, 16))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)

	// Rewind the template as if the previous run never recorded its progress.
	require.NoError(t, svc.db.Model(&models.RecurringExpense{}).Where("id = ?", tmpl.ID).
		Updates(map[string]interface{}{"next_date": testutil.Day(2026, 3, 2), "occurrences": 0}).Error)

	res, err = svc.GenerateDue(ctx, nil, testutil.Day(2026, 3, 16))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 3, res.Skipped)
}

func TestGenerateDue_StopsAtEndDate(t *testing.T) {
	svc, companyID := newService(t)
	ctx := context.Background()

	end := testutil.Day(2026, 3, 15)
	tmpl, err := svc.Create(ctx, companyID, TemplateInput{
		Amount:    testutil.Dec("100"),
		Frequency: models.FrequencyMonthly,
		StartDate: testutil.Day(2026, 1, 1),
		EndDate:   &end,
	})
	require.NoError(t, err)

	res, err := svc.GenerateDue(ctx, &companyID, testutil.Day(2026, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)

	got, err := svc.Get(ctx, companyID, tmpl.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	active, err := svc.List(ctx, companyID, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUpdate_RescheduleKeepsHistory(t *testing.T) {
	svc, companyID := newService(t)
	ctx := context.Background()

	in := TemplateInput{
		Amount:    testutil.Dec("100"),
		Frequency: models.FrequencyMonthly,
		StartDate: testutil.Day(2026, 1, 15),
	}
	tmpl, err := svc.Create(ctx, companyID, in)
	require.NoError(t, err)
	_, err = svc.GenerateDue(ctx, &companyID, testutil.Day(2026, 2, 20))
	require.NoError(t, err)

	in.Frequency = models.FrequencyQuarterly
	got, err := svc.Update(ctx, companyID, tmpl.ID, in)
	require.NoError(t, err)
	// Old next date was Mar 15; the first quarterly date on or after it is Apr 15.
	assert.Equal(t, 1, got.Occurrences)
	assert.True(t, got.NextDate.Equal(testutil.Day(2026, 4, 15)))
}

func TestPreview(t *testing.T) {
	svc, companyID := newService(t)
	ctx := context.Background()
	tmpl, err := svc.Create(ctx, companyID, TemplateInput{
		Amount:    testutil.Dec("100"),
		Frequency: models.FrequencyQuarterly,
		StartDate: testutil.Day(2026, 1, 1),
	})
	require.NoError(t, err)

	dates, err := svc.Preview(ctx, companyID, tmpl.ID, testutil.Day(2026, 1, 1), testutil.Day(2026, 12, 31))
	require.NoError(t, err)
	assert.Len(t, dates, 4)

	_, err = svc.Preview(ctx, companyID, tmpl.ID, testutil.Day(2026, 2, 1), testutil.Day(2026, 1, 1))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestRun_StopsOnCancel(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

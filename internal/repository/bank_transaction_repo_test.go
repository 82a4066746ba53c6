package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaspit-backend/internal/models"
	"kaspit-backend/internal/testutil"
)

func seedTransactions(t *testing.T, repo *BankTransactionRepository, companyID uuid.UUID, descs ...string) {
	t.Helper()
	for i, d := range descs {
		require.NoError(t, repo.db.Create(&models.BankTransaction{
			ID:              uuid.New(),
			CompanyID:       companyID,
			ImportBatchID:   uuid.New(),
			TransactionDate: testutil.Day(2026, 3, 1+i),
			Description:     d,
			Amount:          testutil.Dec("-10"),
			Hash:            uuid.NewString(),
			Status:          models.StatusUnmatched,
		}).Error)
	}
}

func TestBankTransactionRepository_ListPages(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, _ := testutil.Company(t, db)
	otherID, _ := testutil.Company(t, db)
	repo := NewBankTransactionRepository(db)
	ctx := context.Background()

	var descs []string
	for i := 0; i < 5; i++ {
		descs = append(descs, fmt.Sprintf("card purchase %d", i))
	}
	seedTransactions(t, repo, companyID, descs...)
	seedTransactions(t, repo, otherID, "not ours")

	seen := map[uuid.UUID]bool{}
	page, next, more, err := repo.List(ctx, companyID, TransactionFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, more)
	assert.Equal(t, page[1].ID.String(), next)
	for _, tx := range page {
		seen[tx.ID] = true
	}

	page, next, more, err = repo.List(ctx, companyID, TransactionFilter{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, more)
	for _, tx := range page {
		assert.False(t, seen[tx.ID], "row repeated across pages")
		seen[tx.ID] = true
	}

	page, next, more, err = repo.List(ctx, companyID, TransactionFilter{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.False(t, more)
	assert.Empty(t, next)
	seen[page[0].ID] = true

	assert.Len(t, seen, 5)
}

func TestBankTransactionRepository_SearchIsLiteral(t *testing.T) {
	db := testutil.NewDB(t)
	companyID, _ := testutil.Company(t, db)
	repo := NewBankTransactionRepository(db)
	ctx := context.Background()

	seedTransactions(t, repo, companyID, "PAYPAL *GITHUB", "fee_monthly", "50% refund")

	tests := map[string]string{
		"_":       "fee_monthly",
		"%":       "50% refund",
		"github":  "PAYPAL *GITHUB",
		"e_m":     "fee_monthly",
		"0% r":    "50% refund",
		"paypal ": "PAYPAL *GITHUB",
	}
	for search, want := range tests {
		page, _, _, err := repo.List(ctx, companyID, TransactionFilter{Search: search})
		require.NoError(t, err, search)
		require.Len(t, page, 1, search)
		assert.Equal(t, want, page[0].Description, search)
	}
}

package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/services/budget"
	"kaspit-backend/internal/services/vat"
)

type Dashboard struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Profit           decimal.Decimal `json:"profit"`
	OpenTransactions int64           `json:"open_transactions"`
	BudgetAlerts     []budget.Status `json:"budget_alerts"`
	VAT              vat.Report      `json:"vat"`
}

// Dashboard summarizes one month. The queries are independent and run
// concurrently.
func (s *ReportService) Dashboard(ctx context.Context, companyID uuid.UUID, year, month int) (*Dashboard, error) {
	if month < 1 || month > 12 {
		return nil, apperr.Invalid("month must be 1-12")
	}
	from := calendar.MonthStart(year, time.Month(month))
	to := from.AddDate(0, 1, 0)

	d := &Dashboard{Year: year, Month: month, BudgetAlerts: []budget.Status{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		d.Income, err = s.incomes.SumBetween(gctx, companyID, from, to)
		if err != nil {
			return fmt.Errorf("summing income: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		d.Expenses, err = s.expenses.SumBetween(gctx, companyID, from, to)
		if err != nil {
			return fmt.Errorf("summing expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		d.OpenTransactions, err = s.recon.OpenCount(gctx, companyID)
		if err != nil {
			return fmt.Errorf("counting bank transactions: %w", err)
		}
		return nil
	})
	var statuses []budget.Status
	g.Go(func() error {
		var err error
		statuses, err = s.budgets.StatusFor(gctx, companyID, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		d.VAT, err = s.vat.ReportFor(gctx, companyID, from)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Profit = d.Income.Sub(d.Expenses)
	for _, st := range statuses {
		if st.State != budget.StateOK {
			d.BudgetAlerts = append(d.BudgetAlerts, st)
		}
	}
	return d, nil
}

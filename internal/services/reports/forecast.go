package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/models"
	"kaspit-backend/internal/services/recurring"
)

const maxForecastMonths = 24

type BalanceSource string

const (
	BalanceFromBank   BalanceSource = "bank"
	BalanceFromLedger BalanceSource = "ledger"
)

type ForecastMonth struct {
	Month             string          `json:"month"`
	Opening           decimal.Decimal `json:"opening"`
	Income            decimal.Decimal `json:"income"`
	RecurringExpenses decimal.Decimal `json:"recurring_expenses"`
	OtherExpenses     decimal.Decimal `json:"other_expenses"`
	Expenses          decimal.Decimal `json:"expenses"`
	Net               decimal.Decimal `json:"net"`
	Closing           decimal.Decimal `json:"closing"`
}

// Forecast projects balances month by month, starting with the month after AsOf.
type Forecast struct {
	AsOf                 time.Time       `json:"as_of"`
	OpeningBalance       decimal.Decimal `json:"opening_balance"`
	BalanceSource        BalanceSource   `json:"balance_source"`
	LookbackMonths       int             `json:"lookback_months"`
	AverageIncome        decimal.Decimal `json:"average_income"`
	AverageOtherExpenses decimal.Decimal `json:"average_other_expenses"`
	Months               []ForecastMonth `json:"months"`
}

// Forecast projects the company's cash for months months (0 means the
// configured default).
func (s *ReportService) Forecast(ctx context.Context, companyID uuid.UUID, months int, asOf time.Time) (*Forecast, error) {
	if months == 0 {
		months = s.cfg.Forecast.DefaultMonths
	}
	if months < 1 || months > maxForecastMonths {
		return nil, apperr.Invalid("months must be between 1 and %d", maxForecastMonths)
	}
	lookback := s.cfg.Forecast.LookbackMonths
	if lookback < 1 {
		lookback = 3
	}
	asOf = calendar.Day(asOf)

	f := &Forecast{AsOf: asOf, LookbackMonths: lookback}
	if err := s.openingBalance(ctx, companyID, f); err != nil {
		return nil, err
	}

	thisMonth := calendar.MonthOf(asOf)
	from := calendar.AddMonthsClamped(thisMonth, -lookback)
	income, err := s.incomes.SumBetween(ctx, companyID, from, thisMonth)
	if err != nil {
		return nil, fmt.Errorf("summing income: %w", err)
	}
	other, err := s.expenses.SumOneOff(ctx, companyID, from, thisMonth)
	if err != nil {
		return nil, fmt.Errorf("summing expenses: %w", err)
	}
	n := decimal.NewFromInt(int64(lookback))
	f.AverageIncome = income.Div(n).Round(2)
	f.AverageOtherExpenses = other.Div(n).Round(2)

	templates, err := s.templates.List(ctx, companyID, true)
	if err != nil {
		return nil, fmt.Errorf("loading recurring expenses: %w", err)
	}

	balance := f.OpeningBalance
	for i := 1; i <= months; i++ {
		start := calendar.AddMonthsClamped(thisMonth, i)
		end := calendar.AddMonthsClamped(thisMonth, i+1)

		m := ForecastMonth{
			Month:             start.Format("2006-01"),
			Opening:           balance,
			Income:            f.AverageIncome,
			RecurringExpenses: recurringIn(templates, start, end),
			OtherExpenses:     f.AverageOtherExpenses,
		}
		m.Expenses = m.RecurringExpenses.Add(m.OtherExpenses)
		m.Net = m.Income.Sub(m.Expenses)
		m.Closing = m.Opening.Add(m.Net)
		f.Months = append(f.Months, m)
		balance = m.Closing
	}

	s.log.Debug("forecast built",
		zap.String("company_id", companyID.String()),
		zap.Int("months", months),
		zap.String("source", string(f.BalanceSource)))
	return f, nil
}

func (s *ReportService) openingBalance(ctx context.Context, companyID uuid.UUID, f *Forecast) error {
	latest, err := s.txs.LatestBalance(ctx, companyID)
	if err != nil {
		return fmt.Errorf("loading bank balance: %w", err)
	}
	if latest.Valid {
		f.OpeningBalance = latest.Decimal.Round(2)
		f.BalanceSource = BalanceFromBank
		return nil
	}

	in, err := s.incomes.SumPaid(ctx, companyID, f.AsOf)
	if err != nil {
		return fmt.Errorf("summing paid income: %w", err)
	}
	out, err := s.expenses.SumPaid(ctx, companyID, f.AsOf)
	if err != nil {
		return fmt.Errorf("summing paid expenses: %w", err)
	}
	f.OpeningBalance = in.Sub(out)
	f.BalanceSource = BalanceFromLedger
	return nil
}

// recurringIn sums the template amounts falling in [from, to) that have not
// been generated yet.
func recurringIn(templates []models.RecurringExpense, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	last := calendar.Range{From: from, To: to}.Last()
	for i := range templates {
		t := &templates[i]
		for _, d := range recurring.Between(t, from, last) {
			if d.Before(calendar.Day(t.NextDate)) {
				continue
			}
			total = total.Add(t.Amount)
		}
	}
	return total.Round(2)
}

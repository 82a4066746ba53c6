// Package vat computes Israeli VAT (מע"מ) for reporting periods: output VAT
// charged on income, input VAT paid on deductible expenses, and their net.
package vat

import (
	"time"

	"github.com/shopspring/decimal"

	"kaspit-backend/internal/apperr"
	"kaspit-backend/internal/calendar"
	"kaspit-backend/internal/models"
)

var one = decimal.NewFromInt(1)

// Split separates a VAT-inclusive gross amount into net and VAT at rate.
// VAT is rounded to agorot; net absorbs the rounding.
func Split(gross, rate decimal.Decimal) (net, vat decimal.Decimal) {
	if rate.IsZero() {
		return gross, decimal.Zero
	}
	vat = gross.Mul(rate).Div(one.Add(rate)).Round(2)
	return gross.Sub(vat), vat
}

// PeriodFor returns the reporting period containing date. Bi-monthly
// periods are Jan-Feb, Mar-Apr, ... Nov-Dec.
func PeriodFor(date time.Time, kind models.VATPeriod) calendar.Range {
	start := calendar.MonthOf(date)
	if kind == models.VATPeriodBimonthly {
		m := (int(start.Month())-1)/2*2 + 1
		start = calendar.MonthStart(start.Year(), time.Month(m))
		return calendar.Range{From: start, To: start.AddDate(0, 2, 0)}
	}
	return calendar.Range{From: start, To: start.AddDate(0, 1, 0)}
}

// PeriodByIndex returns the n-th period of year: 1..12 for monthly, 1..6 for bi-monthly.
func PeriodByIndex(year, n int, kind models.VATPeriod) (calendar.Range, error) {
	count := 12
	if kind == models.VATPeriodBimonthly {
		count = 6
	}
	if n < 1 || n > count {
		return calendar.Range{}, apperr.Invalid("period %d out of range 1..%d", n, count)
	}
	month := n
	if kind == models.VATPeriodBimonthly {
		month = (n-1)*2 + 1
	}
	return PeriodFor(calendar.MonthStart(year, time.Month(month)), kind), nil
}

type Report struct {
	Period           calendar.Range   `json:"period"`
	PeriodKind       models.VATPeriod `json:"period_kind"`
	OutputVAT        decimal.Decimal  `json:"output_vat"`
	InputVAT         decimal.Decimal  `json:"input_vat"`
	NonDeductibleVAT decimal.Decimal  `json:"non_deductible_vat"`
	NetVAT           decimal.Decimal  `json:"net_vat"`
	Refund           bool             `json:"refund"`
	TaxableSales     decimal.Decimal  `json:"taxable_sales"`
	TaxablePurchases decimal.Decimal  `json:"taxable_purchases"`
	IncomeCount      int              `json:"income_count"`
	ExpenseCount     int              `json:"expense_count"`
}

// Compute reduces the rows of one period into a Report. Rows outside the
// period are ignored.
func Compute(period calendar.Range, kind models.VATPeriod, incomes []models.Income, expenses []models.Expense) Report {
	r := Report{
		Period:           period,
		PeriodKind:       kind,
		OutputVAT:        decimal.Zero,
		InputVAT:         decimal.Zero,
		NonDeductibleVAT: decimal.Zero,
		TaxableSales:     decimal.Zero,
		TaxablePurchases: decimal.Zero,
	}

	for _, inc := range incomes {
		if !period.Contains(inc.Date) {
			continue
		}
		r.IncomeCount++
		r.OutputVAT = r.OutputVAT.Add(inc.VATAmount)
		r.TaxableSales = r.TaxableSales.Add(inc.NetAmount())
	}

	for _, exp := range expenses {
		if !period.Contains(exp.Date) {
			continue
		}
		r.ExpenseCount++
		if exp.VATDeductible {
			r.InputVAT = r.InputVAT.Add(exp.VATAmount)
			r.TaxablePurchases = r.TaxablePurchases.Add(exp.NetAmount())
		} else {
			r.NonDeductibleVAT = r.NonDeductibleVAT.Add(exp.VATAmount)
		}
	}

	r.NetVAT = r.OutputVAT.Sub(r.InputVAT)
	r.Refund = r.NetVAT.IsNegative()
	return r
}

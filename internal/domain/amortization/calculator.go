// Package amortization derives fixed-installment repayment plans.
//
// Everything is computed with shopspring/decimal. Monthly payments and
// per-period interest are rounded half-up to the currency scale; the final
// installment absorbs whatever remainder is left so the plan closes at a
// zero balance.
package amortization

import (
	"time"

	"sfd-loan-engine/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

// DefaultScale is the number of decimals of the smallest currency unit (XOF has none).
const DefaultScale int32 = 0

// Division precision for intermediate annuity terms.
const divPrecision int32 = 24

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

type Terms struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	DurationMonths    int
}

type Installment struct {
	Period    int             `json:"period"`
	DueDate   time.Time       `json:"due_date"`
	Payment   decimal.Decimal `json:"payment"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

type Plan struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	TotalDue       decimal.Decimal `json:"total_due"`
	Installments   []Installment   `json:"installments,omitempty"`
}

type Calculator struct {
	scale int32
}

func NewCalculator(scale int32) *Calculator {
	if scale < 0 {
		scale = DefaultScale
	}
	return &Calculator{scale: scale}
}

func (c *Calculator) Scale() int32 { return c.scale }

func (t Terms) validate() error {
	if !t.Principal.IsPositive() {
		return apperr.Validation("principal must be greater than 0")
	}
	if t.AnnualRatePercent.IsNegative() {
		return apperr.Validation("interest rate must not be negative")
	}
	if t.DurationMonths < 1 {
		return apperr.Validation("duration must be at least 1 month")
	}
	return nil
}

func monthlyRate(annualPercent decimal.Decimal) decimal.Decimal {
	return annualPercent.DivRound(hundred, divPrecision).DivRound(twelve, divPrecision)
}

// MonthlyPayment returns the rounded fixed installment for t.
func (c *Calculator) MonthlyPayment(t Terms) (decimal.Decimal, error) {
	if err := t.validate(); err != nil {
		return decimal.Zero, err
	}
	n := decimal.NewFromInt(int64(t.DurationMonths))
	r := monthlyRate(t.AnnualRatePercent)
	if r.IsZero() {
		return t.Principal.DivRound(n, divPrecision).Round(c.scale), nil
	}
	// principal * r * (1+r)^n / ((1+r)^n - 1)
	growth := compound(r, t.DurationMonths)
	payment := t.Principal.Mul(r).Mul(growth).DivRound(growth.Sub(decimal.NewFromInt(1)), divPrecision)
	return payment.Round(c.scale), nil
}

// compound returns (1+r)^n, rounding each step to divPrecision.
func compound(r decimal.Decimal, n int) decimal.Decimal {
	base := decimal.NewFromInt(1).Add(r)
	out := decimal.NewFromInt(1)
	for i := 0; i < n; i++ {
		out = out.Mul(base).Round(divPrecision)
	}
	return out
}

// Plan computes the monthly payment and totals; when start is non-zero the
// full installment list is included.
func (c *Calculator) Plan(t Terms, start time.Time) (*Plan, error) {
	payment, err := c.MonthlyPayment(t)
	if err != nil {
		return nil, err
	}
	r := monthlyRate(t.AnnualRatePercent)

	plan := &Plan{MonthlyPayment: payment}
	balance := t.Principal
	totalInterest := decimal.Zero
	totalDue := decimal.Zero
	var items []Installment
	if !start.IsZero() {
		items = make([]Installment, 0, t.DurationMonths)
	}

	for k := 1; k <= t.DurationMonths; k++ {
		interest := balance.Mul(r).Round(c.scale)
		principalPart := payment.Sub(interest)
		due := payment
		if k == t.DurationMonths || principalPart.GreaterThan(balance) {
			principalPart = balance
			due = balance.Add(interest)
		}
		balance = balance.Sub(principalPart)
		totalInterest = totalInterest.Add(interest)
		totalDue = totalDue.Add(due)

		if items != nil {
			items = append(items, Installment{
				Period:    k,
				DueDate:   AddMonths(start, k),
				Payment:   due,
				Principal: principalPart,
				Interest:  interest,
				Balance:   balance,
			})
		}
		if balance.IsZero() && k < t.DurationMonths {
			// Rounding paid the loan off early; remaining periods carry nothing.
			for j := k + 1; j <= t.DurationMonths && items != nil; j++ {
				items = append(items, Installment{
					Period: j, DueDate: AddMonths(start, j),
					Payment: decimal.Zero, Principal: decimal.Zero, Interest: decimal.Zero, Balance: decimal.Zero,
				})
			}
			break
		}
	}

	plan.TotalInterest = totalInterest
	plan.TotalDue = totalDue
	plan.Installments = items
	return plan, nil
}

// AddMonths moves t forward by n calendar months, clamping the day to the
// last day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

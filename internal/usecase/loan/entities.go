package loan

import (
	"sfd-loan-engine/internal/domain/amortization"
	domain "sfd-loan-engine/internal/domain/loan"

	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	ClientID       string
	SfdID          string
	Amount         decimal.Decimal
	DurationMonths int
	InterestRate   decimal.Decimal // annual, percent
	Purpose        string
	SubsidyAmount  decimal.Decimal
	ActorID        string
}

type ApproveInput struct {
	LoanID  string
	ActorID string
	// ExpectedVersion, when set, must equal the stored version.
	ExpectedVersion *int64
}

type RejectInput struct {
	LoanID  string
	ActorID string
	Reason  string
}

type DisburseInput struct {
	LoanID  string
	ActorID string
}

type ListInput struct {
	SfdID  string
	Status string
	Limit  int
	Offset int
}

type LoanPage struct {
	Items  []domain.Loan `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ScheduleDTO is derived on every read. Projected is true until the loan is
// disbursed, when due dates are counted from the request time instead.
type ScheduleDTO struct {
	LoanID    string `json:"loan_id"`
	Projected bool   `json:"projected"`
	*amortization.Plan
}

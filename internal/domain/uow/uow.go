package uow

import (
	"context"

	"sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/domain/payment"
	"sfd-loan-engine/internal/domain/subsidy"
)

// Repos are bound to one transaction.
type Repos struct {
	Loans      loan.Repository
	Subsidies  subsidy.Repository
	Payments   payment.Repository
	Activities activity.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: load the loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}

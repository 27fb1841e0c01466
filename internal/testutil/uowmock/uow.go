package uowmock

import (
	"context"
	"errors"
	"sync/atomic"

	"sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed uow.UnitOfWork. Unset functions return
// errUnimplemented. Txs counts transactions opened through either method.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error

	Txs atomic.Int64
}

func New() *UoW { return &UoW{} }

// Over runs every transaction body directly against repos, with no commit
// or rollback. WithinLoanTx loads the loan through repos.Loans the way the
// gorm unit of work does, so a missing loan fails before fn runs.
func Over(repos uow.Repos) *UoW {
	return New().
		WithWithinTx(func(_ context.Context, fn func(uow.Repos) error) error {
			return fn(repos)
		}).
		WithWithinLoanTx(func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
			if repos.Loans == nil {
				return errors.New("uowmock: Over needs repos.Loans for WithinLoanTx")
			}
			l, err := repos.Loans.GetByLoanID(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(repos, l)
		})
}

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}

func (m *UoW) WithWithinLoanTx(fn func(context.Context, string, func(uow.Repos, *loan.Loan) error) error) *UoW {
	m.WithinLoanTxFn = fn
	return m
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	m.Txs.Add(1)
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	m.Txs.Add(1)
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}

package loanmock

import (
	"context"
	"time"

	domain "sfd-loan-engine/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset reads return context.Canceled; unset writes are no-ops.
type Repo struct {
	CreateFn               func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn          func(ctx context.Context, loanID string) (*domain.Loan, error)
	ListFn                 func(ctx context.Context, f domain.ListFilter) ([]domain.Loan, int64, error)
	CompareAndSwapFn       func(ctx context.Context, l *domain.Loan, expected domain.Status) error
	ListActiveDueBetweenFn func(ctx context.Context, from, to time.Time) ([]domain.Loan, error)
	ListActiveOverdueFn    func(ctx context.Context, cutoff time.Time) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Loan, int64, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, 0, context.Canceled
}

func (m *Repo) CompareAndSwap(ctx context.Context, l *domain.Loan, expected domain.Status) error {
	if m.CompareAndSwapFn != nil {
		return m.CompareAndSwapFn(ctx, l, expected)
	}
	l.Version++
	return nil
}

func (m *Repo) ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]domain.Loan, error) {
	if m.ListActiveDueBetweenFn != nil {
		return m.ListActiveDueBetweenFn(ctx, from, to)
	}
	return nil, context.Canceled
}

func (m *Repo) ListActiveOverdue(ctx context.Context, cutoff time.Time) ([]domain.Loan, error) {
	if m.ListActiveOverdueFn != nil {
		return m.ListActiveOverdueFn(ctx, cutoff)
	}
	return nil, context.Canceled
}

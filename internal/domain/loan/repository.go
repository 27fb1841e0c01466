package loan

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	List(ctx context.Context, f ListFilter) ([]Loan, int64, error)

	// CompareAndSwap persists l only if the stored row still has the
	// expected status and l.Version; on success l.Version is incremented.
	// A lost race returns ErrStaleVersion.
	CompareAndSwap(ctx context.Context, l *Loan, expected Status) error

	// ListActiveDueBetween returns active loans whose next payment date is in [from, to].
	ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]Loan, error)
	// ListActiveOverdue returns active loans whose next payment date is before cutoff.
	ListActiveOverdue(ctx context.Context, cutoff time.Time) ([]Loan, error)
}

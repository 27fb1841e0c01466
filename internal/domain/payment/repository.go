package payment

import "context"

type Repository interface {
	// Create fails with ErrDuplicate when (loan_id, idempotency_key) already exists.
	Create(ctx context.Context, p *Payment) error
	GetByIdempotencyKey(ctx context.Context, loanID, key string) (*Payment, error)
	ListByLoanID(ctx context.Context, loanID string) ([]Payment, error)
}

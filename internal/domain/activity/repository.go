package activity

import (
	"context"
	"time"
)

// Repository has no update or delete on purpose: the trail is append-only.
type Repository interface {
	Append(ctx context.Context, a *Activity) error
	ListByLoanID(ctx context.Context, loanID string) ([]Activity, error)
	HasReminder(ctx context.Context, loanID string, dueDate time.Time) (bool, error)
}

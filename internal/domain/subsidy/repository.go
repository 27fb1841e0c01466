package subsidy

import (
	"context"
	"time"
)

type Repository interface {
	// GetBySfdID returns ErrNotFound when the SFD has no allocation row.
	GetBySfdID(ctx context.Context, sfdID string) (*Allocation, error)
	List(ctx context.Context) ([]Allocation, error)
	Create(ctx context.Context, a *Allocation) error
	// CompareAndSwap saves a when the stored version still equals a.Version,
	// then increments it; otherwise ErrStaleVersion.
	CompareAndSwap(ctx context.Context, a *Allocation) error

	CreateReservation(ctx context.Context, r *Reservation) error
	GetReservationByLoanID(ctx context.Context, loanID string) (*Reservation, error)
	// MoveReservation switches a reservation from one status to another;
	// false when the row was not in from.
	MoveReservation(ctx context.Context, loanID string, from, to ReservationStatus, at time.Time) (bool, error)
	ListReservedBefore(ctx context.Context, cutoff time.Time, limit int) ([]Reservation, error)
}

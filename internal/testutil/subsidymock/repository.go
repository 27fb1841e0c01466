package subsidymock

import (
	"context"
	"time"

	domain "sfd-loan-engine/internal/domain/subsidy"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset reads return domain.ErrNotFound; unset writes are no-ops.
type Repo struct {
	GetBySfdIDFn             func(ctx context.Context, sfdID string) (*domain.Allocation, error)
	ListFn                   func(ctx context.Context) ([]domain.Allocation, error)
	CreateFn                 func(ctx context.Context, a *domain.Allocation) error
	CompareAndSwapFn         func(ctx context.Context, a *domain.Allocation) error
	CreateReservationFn      func(ctx context.Context, r *domain.Reservation) error
	GetReservationByLoanIDFn func(ctx context.Context, loanID string) (*domain.Reservation, error)
	MoveReservationFn        func(ctx context.Context, loanID string, from, to domain.ReservationStatus, at time.Time) (bool, error)
	ListReservedBeforeFn     func(ctx context.Context, cutoff time.Time, limit int) ([]domain.Reservation, error)
}

func (m *Repo) GetBySfdID(ctx context.Context, sfdID string) (*domain.Allocation, error) {
	if m.GetBySfdIDFn != nil {
		return m.GetBySfdIDFn(ctx, sfdID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) List(ctx context.Context) ([]domain.Allocation, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *Repo) Create(ctx context.Context, a *domain.Allocation) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) CompareAndSwap(ctx context.Context, a *domain.Allocation) error {
	if m.CompareAndSwapFn != nil {
		return m.CompareAndSwapFn(ctx, a)
	}
	a.Version++
	return nil
}

func (m *Repo) CreateReservation(ctx context.Context, r *domain.Reservation) error {
	if m.CreateReservationFn != nil {
		return m.CreateReservationFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetReservationByLoanID(ctx context.Context, loanID string) (*domain.Reservation, error) {
	if m.GetReservationByLoanIDFn != nil {
		return m.GetReservationByLoanIDFn(ctx, loanID)
	}
	return nil, domain.ErrReservationNotFound
}

func (m *Repo) MoveReservation(ctx context.Context, loanID string, from, to domain.ReservationStatus, at time.Time) (bool, error) {
	if m.MoveReservationFn != nil {
		return m.MoveReservationFn(ctx, loanID, from, to, at)
	}
	return true, nil
}

func (m *Repo) ListReservedBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Reservation, error) {
	if m.ListReservedBeforeFn != nil {
		return m.ListReservedBeforeFn(ctx, cutoff, limit)
	}
	return nil, nil
}

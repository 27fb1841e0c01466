// Package subsidy manages the umbrella subsidy allocations held per SFD.
package subsidy

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sfd-loan-engine/internal/domain/apperr"
	domain "sfd-loan-engine/internal/domain/subsidy"
	"sfd-loan-engine/internal/domain/uow"
	"sfd-loan-engine/internal/metrics"

	"github.com/shopspring/decimal"
)

type Usecase struct {
	uow    uow.UnitOfWork
	repo   domain.Repository
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithLogger(l *slog.Logger) Option { return func(u *Usecase) { u.logger = l } }

// NewUsecase: repo serves reads, tx wraps every balance change.
func NewUsecase(tx uow.UnitOfWork, repo domain.Repository, opts ...Option) *Usecase {
	u := &Usecase{uow: tx, repo: repo, logger: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) clock() time.Time { return u.now().UTC().Truncate(time.Second) }

type AmountInput struct {
	SfdID   string
	Amount  decimal.Decimal
	ActorID string
}

func (in AmountInput) validate() error {
	if in.SfdID == "" {
		return apperr.Validation("sfd_id is required")
	}
	if in.ActorID == "" {
		return apperr.Validation("actor_id is required")
	}
	if !in.Amount.IsPositive() {
		return apperr.Validation("amount must be greater than 0")
	}
	return nil
}

// Allocate creates the SFD's allocation or tops it up.
func (u *Usecase) Allocate(ctx context.Context, in AmountInput) (*domain.Allocation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *domain.Allocation
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Subsidies.GetBySfdID(ctx, in.SfdID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a = &domain.Allocation{SfdID: in.SfdID, UpdatedBy: in.ActorID}
			if err := a.Allocate(in.Amount); err != nil {
				return err
			}
			if err := r.Subsidies.Create(ctx, a); err != nil {
				// Another umbrella admin created the row first.
				if errors.Is(err, apperr.ErrDuplicateRequest) {
					return domain.ErrStaleVersion
				}
				return err
			}
		case err != nil:
			return err
		default:
			if err := a.Allocate(in.Amount); err != nil {
				return err
			}
			a.UpdatedBy = in.ActorID
			if err := r.Subsidies.CompareAndSwap(ctx, a); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	metrics.SubsidyOperations.WithLabelValues("allocate", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	u.logger.Info("subsidy allocated", "sfd_id", in.SfdID, "amount", in.Amount.String(), "actor_id", in.ActorID)
	return out, nil
}

// Revoke withdraws unreserved funds; it never drives the remaining balance below zero.
func (u *Usecase) Revoke(ctx context.Context, in AmountInput) (*domain.Allocation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var out *domain.Allocation
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Subsidies.GetBySfdID(ctx, in.SfdID)
		if err != nil {
			return err
		}
		if err := a.Revoke(in.Amount); err != nil {
			return err
		}
		a.UpdatedBy = in.ActorID
		if err := r.Subsidies.CompareAndSwap(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	metrics.SubsidyOperations.WithLabelValues("revoke", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	u.logger.Info("subsidy revoked", "sfd_id", in.SfdID, "amount", in.Amount.String(), "actor_id", in.ActorID)
	return out, nil
}

func (u *Usecase) Balance(ctx context.Context, sfdID string) (*domain.Allocation, error) {
	if sfdID == "" {
		return nil, apperr.Validation("sfd_id is required")
	}
	return u.repo.GetBySfdID(ctx, sfdID)
}

func (u *Usecase) List(ctx context.Context) ([]domain.Allocation, error) {
	return u.repo.List(ctx)
}

// ReleaseStale releases reservations left open longer than ttl, one
// transaction per reservation. A reservation that changed under the sweep
// is skipped; the next run sees its new state.
func (u *Usecase) ReleaseStale(ctx context.Context, ttl time.Duration) (int, error) {
	now := u.clock()
	stale, err := u.repo.ListReservedBefore(ctx, now.Add(-ttl), 100)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, res := range stale {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		var ok bool
		err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
			var err error
			ok, err = Release(ctx, r.Subsidies, res.LoanID, now)
			return err
		})
		switch {
		case errors.Is(err, apperr.ErrConcurrentModification):
			u.logger.Warn("stale reservation changed during release", "loan_id", res.LoanID)
			continue
		case err != nil:
			return released, err
		}
		if ok {
			released++
			u.logger.Info("released stale subsidy reservation",
				"loan_id", res.LoanID, "sfd_id", res.SfdID, "amount", res.Amount.String())
		}
	}
	return released, nil
}

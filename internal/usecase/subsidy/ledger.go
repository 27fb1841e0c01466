package subsidy

import (
	"context"
	"errors"
	"time"

	"sfd-loan-engine/internal/domain/apperr"
	domain "sfd-loan-engine/internal/domain/subsidy"
	"sfd-loan-engine/internal/metrics"

	"github.com/shopspring/decimal"
)

// The functions below move money inside the caller's transaction, so a loan
// transition and its ledger effect commit or roll back together.

// Reserve holds amount for loanID against the SFD allocation and records
// the reservation.
func Reserve(ctx context.Context, repo domain.Repository, sfdID, loanID string, amount decimal.Decimal, at time.Time) error {
	a, err := repo.GetBySfdID(ctx, sfdID)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.SubsidyOperations.WithLabelValues("reserve", "insufficient").Inc()
		return apperr.Wrap(apperr.KindInsufficientSubsidy, "sfd "+sfdID+" has no subsidy allocation", domain.ErrInsufficient)
	}
	if err != nil {
		return err
	}
	if err := a.Reserve(amount); err != nil {
		metrics.SubsidyOperations.WithLabelValues("reserve", outcome(err)).Inc()
		return err
	}
	if err := repo.CompareAndSwap(ctx, a); err != nil {
		metrics.SubsidyOperations.WithLabelValues("reserve", outcome(err)).Inc()
		return err
	}
	err = repo.CreateReservation(ctx, &domain.Reservation{
		LoanID:     loanID,
		SfdID:      sfdID,
		Amount:     amount,
		Status:     domain.ReservationReserved,
		ReservedAt: at,
	})
	if err != nil {
		return err
	}
	metrics.SubsidyOperations.WithLabelValues("reserve", "ok").Inc()
	return nil
}

// Commit turns the loan's reservation into used subsidy. A reservation the
// stale sweep already released is taken again from the remaining balance,
// which fails with InsufficientSubsidy when the SFD no longer has it.
func Commit(ctx context.Context, repo domain.Repository, loanID string, at time.Time) (*domain.Reservation, error) {
	res, err := repo.GetReservationByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if res.Status == domain.ReservationCommitted {
		return res, nil
	}
	a, err := repo.GetBySfdID(ctx, res.SfdID)
	if err != nil {
		return nil, err
	}
	from := res.Status
	if from == domain.ReservationReleased {
		if err := a.Reserve(res.Amount); err != nil {
			metrics.SubsidyOperations.WithLabelValues("commit", outcome(err)).Inc()
			return nil, err
		}
	}
	if err := a.Commit(res.Amount); err != nil {
		return nil, err
	}
	if err := repo.CompareAndSwap(ctx, a); err != nil {
		metrics.SubsidyOperations.WithLabelValues("commit", outcome(err)).Inc()
		return nil, err
	}
	moved, err := repo.MoveReservation(ctx, loanID, from, domain.ReservationCommitted, at)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, domain.ErrStaleVersion
	}
	res.Status = domain.ReservationCommitted
	res.SettledAt = &at
	metrics.SubsidyOperations.WithLabelValues("commit", "ok").Inc()
	return res, nil
}

// Release returns an open reservation to the pool. It reports false when
// the reservation was already settled.
func Release(ctx context.Context, repo domain.Repository, loanID string, at time.Time) (bool, error) {
	res, err := repo.GetReservationByLoanID(ctx, loanID)
	if err != nil {
		return false, err
	}
	if res.Status != domain.ReservationReserved {
		return false, nil
	}
	moved, err := repo.MoveReservation(ctx, loanID, domain.ReservationReserved, domain.ReservationReleased, at)
	if err != nil || !moved {
		return false, err
	}
	a, err := repo.GetBySfdID(ctx, res.SfdID)
	if err != nil {
		return false, err
	}
	if err := a.Release(res.Amount); err != nil {
		return false, err
	}
	if err := repo.CompareAndSwap(ctx, a); err != nil {
		metrics.SubsidyOperations.WithLabelValues("release", outcome(err)).Inc()
		return false, err
	}
	metrics.SubsidyOperations.WithLabelValues("release", "ok").Inc()
	return true, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.KindOf(err) {
	case apperr.KindInsufficientSubsidy:
		return "insufficient"
	case apperr.KindConcurrentModification:
		return "conflict"
	}
	return "error"
}

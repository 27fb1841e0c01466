package loan

import (
	"context"
	"strconv"
	"strings"
	"time"

	"sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/amortization"
	"sfd-loan-engine/internal/domain/apperr"
	domain "sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/domain/uow"
	subsidyuc "sfd-loan-engine/internal/usecase/subsidy"

	"github.com/shopspring/decimal"
)

func requireActor(loanID, actorID string) error {
	if loanID == "" {
		return apperr.Validation("loan_id is required")
	}
	if strings.TrimSpace(actorID) == "" {
		return apperr.Validation("actor_id is required")
	}
	return nil
}

// Approve fixes the repayment terms and reserves the loan's subsidy. When
// the SFD cannot cover the subsidy nothing is written and the loan stays
// pending.
func (u *Usecase) Approve(ctx context.Context, in ApproveInput) (*domain.Loan, error) {
	if err := requireActor(in.LoanID, in.ActorID); err != nil {
		return nil, err
	}
	now := u.clock()
	var out *domain.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if in.ExpectedVersion != nil && *in.ExpectedVersion != l.Version {
			return apperr.Newf(apperr.KindConcurrentModification,
				"loan %s is at version %d, expected %d", l.LoanID, l.Version, *in.ExpectedVersion)
		}
		if err := l.Transition(domain.StatusPending, domain.StatusApproved); err != nil {
			return err
		}
		plan, err := u.calc.Plan(termsOf(l), time.Time{})
		if err != nil {
			return err
		}
		l.MonthlyPayment = decimal.NewNullDecimal(plan.MonthlyPayment)
		l.TotalDue = decimal.NewNullDecimal(plan.TotalDue)
		l.Status = domain.StatusApproved
		l.ApprovedAt = &now
		l.ApprovedBy = in.ActorID
		l.StatusUpdatedAt = now
		// The loan row is claimed first so a losing approver never touches the ledger.
		if err := r.Loans.CompareAndSwap(ctx, l, domain.StatusPending); err != nil {
			return err
		}
		if l.SubsidyAmount.IsPositive() {
			if err := subsidyuc.Reserve(ctx, r.Subsidies, l.SfdID, l.LoanID, l.SubsidyAmount, now); err != nil {
				return err
			}
		}
		out = l
		return r.Activities.Append(ctx, newActivity(l.LoanID, activity.TypeApproved, in.ActorID, now,
			"approved with monthly payment "+plan.MonthlyPayment.String()+" over "+strconv.Itoa(l.DurationMonths)+" months"))
	})
	if err != nil {
		u.failed("approve", in.LoanID, err)
		return nil, err
	}
	u.committed(out, domain.StatusPending, now)
	return out, nil
}

func (u *Usecase) Reject(ctx context.Context, in RejectInput) (*domain.Loan, error) {
	if err := requireActor(in.LoanID, in.ActorID); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	now := u.clock()
	var out *domain.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if err := l.Transition(domain.StatusPending, domain.StatusRejected); err != nil {
			return err
		}
		l.Status = domain.StatusRejected
		l.RejectedAt = &now
		l.RejectedBy = in.ActorID
		l.RejectionReason = reason
		l.StatusUpdatedAt = now
		if err := r.Loans.CompareAndSwap(ctx, l, domain.StatusPending); err != nil {
			return err
		}
		out = l
		return r.Activities.Append(ctx, newActivity(l.LoanID, activity.TypeRejected, in.ActorID, now, "rejected: "+reason))
	})
	if err != nil {
		u.failed("reject", in.LoanID, err)
		return nil, err
	}
	u.committed(out, domain.StatusPending, now)
	return out, nil
}

// Disburse activates an approved loan and turns its subsidy reservation
// into used subsidy. The first installment falls one month after disbursement.
func (u *Usecase) Disburse(ctx context.Context, in DisburseInput) (*domain.Loan, error) {
	if err := requireActor(in.LoanID, in.ActorID); err != nil {
		return nil, err
	}
	now := u.clock()
	var out *domain.Loan
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domain.Loan) error {
		if err := l.Transition(domain.StatusApproved, domain.StatusActive); err != nil {
			return err
		}
		next := amortization.AddMonths(now, 1)
		l.Status = domain.StatusActive
		l.DisbursedAt = &now
		l.DisbursedBy = in.ActorID
		l.NextPaymentDate = &next
		l.StatusUpdatedAt = now
		if err := r.Loans.CompareAndSwap(ctx, l, domain.StatusApproved); err != nil {
			return err
		}
		if l.SubsidyAmount.IsPositive() {
			if _, err := subsidyuc.Commit(ctx, r.Subsidies, l.LoanID, now); err != nil {
				return err
			}
		}
		out = l
		return r.Activities.Append(ctx, newActivity(l.LoanID, activity.TypeDisbursed, in.ActorID, now,
			"disbursed; first installment due "+next.Format("2006-01-02")))
	})
	if err != nil {
		u.failed("disburse", in.LoanID, err)
		return nil, err
	}
	u.committed(out, domain.StatusApproved, now)
	return out, nil
}

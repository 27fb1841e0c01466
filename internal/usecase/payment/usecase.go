// Package payment records repayments against active loans and marks loans
// that fell past their grace period as defaulted.
package payment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/amortization"
	"sfd-loan-engine/internal/domain/apperr"
	"sfd-loan-engine/internal/domain/loan"
	domain "sfd-loan-engine/internal/domain/payment"
	"sfd-loan-engine/internal/domain/settings"
	"sfd-loan-engine/internal/domain/uow"
	"sfd-loan-engine/internal/metrics"
	"sfd-loan-engine/internal/notifier"
	"sfd-loan-engine/pkg/id"

	"github.com/shopspring/decimal"
)

type Usecase struct {
	uow       uow.UnitOfWork
	payments  domain.Repository
	loans     loan.Repository
	settings  settings.Provider
	tolerance decimal.Decimal
	pub       notifier.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithPublisher(p notifier.Publisher) Option { return func(u *Usecase) { u.pub = p } }

func WithLogger(l *slog.Logger) Option { return func(u *Usecase) { u.logger = l } }

// WithTolerance sets the rounding slack allowed per installment when
// deciding that a loan is paid off.
func WithTolerance(perInstallment decimal.Decimal) Option {
	return func(u *Usecase) { u.tolerance = perInstallment }
}

func NewUsecase(tx uow.UnitOfWork, payments domain.Repository, loans loan.Repository, sp settings.Provider, opts ...Option) *Usecase {
	u := &Usecase{
		uow:       tx,
		payments:  payments,
		loans:     loans,
		settings:  sp,
		tolerance: decimal.NewFromInt(1),
		pub:       notifier.Nop{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) clock() time.Time { return u.now().UTC().Truncate(time.Second) }

type RecordInput struct {
	LoanID         string
	Amount         decimal.Decimal
	Method         string
	ActorID        string
	IdempotencyKey string
}

// RecordResult carries the stored payment. On a repeated idempotency key
// Payment is the original one and Loan is nil.
type RecordResult struct {
	Payment   *domain.Payment `json:"payment"`
	Loan      *loan.Loan      `json:"loan,omitempty"`
	Completed bool            `json:"completed"`
}

func (in RecordInput) validate() (domain.Method, error) {
	if in.LoanID == "" {
		return "", apperr.Validation("loan_id is required")
	}
	if strings.TrimSpace(in.ActorID) == "" {
		return "", apperr.Validation("actor_id is required")
	}
	if strings.TrimSpace(in.IdempotencyKey) == "" {
		return "", apperr.Validation("idempotency_key is required")
	}
	if !in.Amount.IsPositive() {
		return "", apperr.Validation("amount must be greater than 0")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return "", apperr.Validation("amount has more than 2 decimals")
	}
	m, ok := domain.ParseMethod(in.Method)
	if !ok {
		return "", apperr.Validation("unknown payment method %q", in.Method)
	}
	return m, nil
}

// completionSlack is how far below total_due a loan still counts as paid off.
func (u *Usecase) completionSlack(l *loan.Loan) decimal.Decimal {
	return u.tolerance.Mul(decimal.NewFromInt(int64(l.DurationMonths)))
}

// installmentsCovered is the number of monthly payments amount_paid covers,
// each allowed to fall short by the per-installment tolerance.
func (u *Usecase) installmentsCovered(l *loan.Loan) int {
	if !l.MonthlyPayment.Valid || !l.MonthlyPayment.Decimal.IsPositive() {
		return 0
	}
	due := l.MonthlyPayment.Decimal
	if slack := due.Sub(u.tolerance); slack.IsPositive() {
		due = slack
	}
	n := int(l.AmountPaid.Div(due).Floor().IntPart())
	if n > l.DurationMonths {
		n = l.DurationMonths
	}
	return n
}

func (u *Usecase) RecordPayment(ctx context.Context, in RecordInput) (*RecordResult, error) {
	method, err := in.validate()
	if err != nil {
		return nil, err
	}
	now := u.clock()
	var (
		res  *RecordResult
		prev *domain.Payment
	)
	err = u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		existing, err := r.Payments.GetByIdempotencyKey(ctx, l.LoanID, in.IdempotencyKey)
		switch {
		case err == nil:
			prev = existing
			return domain.ErrDuplicate
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}
		if l.Status != loan.StatusActive {
			return apperr.Wrap(apperr.KindInvalidTransition,
				"loan "+l.LoanID+" is "+string(l.Status)+", payments need an active loan", loan.ErrNotActive)
		}
		if out := l.Outstanding(); in.Amount.GreaterThan(out) {
			return apperr.Validation("amount %s exceeds outstanding balance %s", in.Amount, out)
		}

		p := &domain.Payment{
			PaymentID:      id.NewID32(),
			LoanID:         l.LoanID,
			IdempotencyKey: in.IdempotencyKey,
			Amount:         in.Amount,
			Method:         method,
			RecordedBy:     in.ActorID,
			RecordedAt:     now,
		}
		if err := r.Payments.Create(ctx, p); err != nil {
			return err
		}

		l.AmountPaid = l.AmountPaid.Add(in.Amount)
		l.InstallmentsPaid = u.installmentsCovered(l)
		l.LastPaymentDate = &now
		completed := l.AmountPaid.GreaterThanOrEqual(l.TotalDue.Decimal.Sub(u.completionSlack(l)))
		if completed {
			l.Status = loan.StatusCompleted
			l.CompletedAt = &now
			l.NextPaymentDate = nil
			l.StatusUpdatedAt = now
		} else if l.DisbursedAt != nil {
			next := amortization.AddMonths(*l.DisbursedAt, l.InstallmentsPaid+1)
			l.NextPaymentDate = &next
		}
		if err := r.Loans.CompareAndSwap(ctx, l, loan.StatusActive); err != nil {
			return err
		}
		if err := r.Activities.Append(ctx, &activity.Activity{
			ActivityID:   id.NewID32(),
			LoanID:       l.LoanID,
			ActivityType: activity.TypePayment,
			Description:  "payment of " + in.Amount.String() + " by " + string(method),
			PerformedBy:  in.ActorID,
			PerformedAt:  now,
		}); err != nil {
			return err
		}
		if completed {
			if err := r.Activities.Append(ctx, &activity.Activity{
				ActivityID:   id.NewID32(),
				LoanID:       l.LoanID,
				ActivityType: activity.TypeCompleted,
				Description:  "repaid in full, " + l.AmountPaid.String() + " collected",
				PerformedBy:  in.ActorID,
				PerformedAt:  now,
			}); err != nil {
				return err
			}
		}
		res = &RecordResult{Payment: p, Loan: l, Completed: completed}
		return nil
	})

	if errors.Is(err, domain.ErrDuplicate) {
		metrics.DuplicatePayments.Inc()
		if prev == nil {
			// Lost the insert race on the unique index; the winner is committed.
			prev, _ = u.payments.GetByIdempotencyKey(ctx, in.LoanID, in.IdempotencyKey)
		}
		u.logger.Info("duplicate payment ignored", "loan_id", in.LoanID, "idempotency_key", in.IdempotencyKey)
		return &RecordResult{Payment: prev}, err
	}
	if err != nil {
		if errors.Is(err, apperr.ErrConcurrentModification) {
			metrics.TransitionConflicts.WithLabelValues("payment").Inc()
		}
		u.logger.Warn("payment failed", "loan_id", in.LoanID, "kind", apperr.KindOf(err), "error", err)
		return nil, err
	}

	metrics.PaymentsRecorded.WithLabelValues(string(method)).Inc()
	u.logger.Info("payment recorded", "loan_id", in.LoanID, "payment_id", res.Payment.PaymentID,
		"amount", in.Amount.String(), "amount_paid", res.Loan.AmountPaid.String())
	u.pub.Publish(notifier.NewEvent(notifier.EventPaymentRecorded, res.Loan, loan.StatusActive, now))
	if res.Completed {
		metrics.LoanTransitions.WithLabelValues(string(loan.StatusActive), string(loan.StatusCompleted)).Inc()
		u.pub.Publish(notifier.NewEvent(notifier.EventStatusChanged, res.Loan, loan.StatusActive, now))
	}
	return res, nil
}

func (u *Usecase) List(ctx context.Context, loanID string) ([]domain.Payment, error) {
	if _, err := u.loans.GetByLoanID(ctx, loanID); err != nil {
		return nil, err
	}
	out, err := u.payments.ListByLoanID(ctx, loanID)
	if out == nil && err == nil {
		out = []domain.Payment{}
	}
	return out, err
}

// MarkDefaults moves active loans whose next payment is more than the SFD's
// grace period overdue to defaulted. Each loan commits on its own; a loan
// that changed meanwhile (paid, or defaulted by another sweeper) is skipped.
func (u *Usecase) MarkDefaults(ctx context.Context) (int, error) {
	now := u.clock()
	overdue, err := u.loans.ListActiveOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	grace := map[string]int{}
	marked := 0
	for i := range overdue {
		if err := ctx.Err(); err != nil {
			return marked, err
		}
		candidate := &overdue[i]
		days, ok := grace[candidate.SfdID]
		if !ok {
			s, err := u.settings.ForSfd(ctx, candidate.SfdID)
			if err != nil {
				return marked, err
			}
			days = s.GracePeriodDays
			grace[candidate.SfdID] = days
		}

		var out *loan.Loan
		err := u.uow.WithinLoanTx(ctx, candidate.LoanID, func(r uow.Repos, l *loan.Loan) error {
			if l.NextPaymentDate == nil || !now.After(l.NextPaymentDate.AddDate(0, 0, days)) {
				return nil
			}
			if err := l.Transition(loan.StatusActive, loan.StatusDefaulted); err != nil {
				return err
			}
			due := *l.NextPaymentDate
			l.Status = loan.StatusDefaulted
			l.DefaultedAt = &now
			l.StatusUpdatedAt = now
			if err := r.Loans.CompareAndSwap(ctx, l, loan.StatusActive); err != nil {
				return err
			}
			out = l
			return r.Activities.Append(ctx, &activity.Activity{
				ActivityID:   id.NewID32(),
				LoanID:       l.LoanID,
				ActivityType: activity.TypeDefaulted,
				Description:  "installment due " + due.Format("2006-01-02") + " unpaid after grace period",
				PerformedBy:  "system",
				PerformedAt:  now,
			})
		})
		switch {
		case errors.Is(err, apperr.ErrConcurrentModification), errors.Is(err, apperr.ErrInvalidTransition):
			u.logger.Info("skipping loan changed during default sweep", "loan_id", candidate.LoanID, "error", err)
			continue
		case err != nil:
			return marked, err
		case out == nil:
			continue
		}
		marked++
		metrics.LoanTransitions.WithLabelValues(string(loan.StatusActive), string(loan.StatusDefaulted)).Inc()
		u.logger.Warn("loan defaulted", "loan_id", out.LoanID, "sfd_id", out.SfdID, "grace_days", days)
		u.pub.Publish(notifier.NewEvent(notifier.EventStatusChanged, out, loan.StatusActive, now))
	}
	return marked, nil
}

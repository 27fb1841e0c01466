// Package reminder selects loans whose next installment is coming up and
// records that a reminder went out, at most once per due date.
package reminder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/apperr"
	"sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/domain/uow"
	"sfd-loan-engine/pkg/id"

	"github.com/shopspring/decimal"
)

const DefaultWindow = 72 * time.Hour

type Usecase struct {
	uow        uow.UnitOfWork
	loans      loan.Repository
	activities activity.Repository
	window     time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithLogger(l *slog.Logger) Option { return func(u *Usecase) { u.logger = l } }

// WithWindow sets how far ahead of a due date a loan becomes eligible.
func WithWindow(d time.Duration) Option {
	return func(u *Usecase) {
		if d > 0 {
			u.window = d
		}
	}
}

func NewUsecase(tx uow.UnitOfWork, loans loan.Repository, activities activity.Repository, opts ...Option) *Usecase {
	u := &Usecase{
		uow:        tx,
		loans:      loans,
		activities: activities,
		window:     DefaultWindow,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

func (u *Usecase) Window() time.Duration { return u.window }

type Due struct {
	LoanID         string          `json:"loan_id"`
	ClientID       string          `json:"client_id"`
	SfdID          string          `json:"sfd_id"`
	DueDate        time.Time       `json:"due_date"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}

func dueOf(l *loan.Loan) Due {
	return Due{
		LoanID:         l.LoanID,
		ClientID:       l.ClientID,
		SfdID:          l.SfdID,
		DueDate:        *l.NextPaymentDate,
		MonthlyPayment: l.MonthlyPayment.Decimal,
		Outstanding:    l.Outstanding(),
	}
}

func (u *Usecase) at(now time.Time) time.Time {
	if now.IsZero() {
		now = u.now()
	}
	return now.UTC().Truncate(time.Second)
}

// DueForReminder lists active loans due within the window after now that
// have no reminder for that due date yet. It writes nothing, so an
// interrupted delivery run can simply call it again.
func (u *Usecase) DueForReminder(ctx context.Context, now time.Time) ([]Due, error) {
	now = u.at(now)
	loans, err := u.loans.ListActiveDueBetween(ctx, now, now.Add(u.window))
	if err != nil {
		return nil, err
	}
	out := make([]Due, 0, len(loans))
	for i := range loans {
		l := &loans[i]
		sent, err := u.activities.HasReminder(ctx, l.LoanID, *l.NextPaymentDate)
		if err != nil {
			return nil, err
		}
		if !sent {
			out = append(out, dueOf(l))
		}
	}
	return out, nil
}

// DueForLoan is DueForReminder for a single loan; nil means no reminder is due.
func (u *Usecase) DueForLoan(ctx context.Context, loanID string, now time.Time) (*Due, error) {
	now = u.at(now)
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.Status != loan.StatusActive || l.NextPaymentDate == nil {
		return nil, nil
	}
	next := *l.NextPaymentDate
	if next.Before(now) || next.After(now.Add(u.window)) {
		return nil, nil
	}
	sent, err := u.activities.HasReminder(ctx, l.LoanID, next)
	if err != nil || sent {
		return nil, err
	}
	d := dueOf(l)
	return &d, nil
}

type RecordInput struct {
	LoanID  string
	DueDate time.Time
	ActorID string
}

// RecordReminderSent appends the reminder_sent activity. A second call for
// the same due date fails with DuplicateRequest and writes nothing.
func (u *Usecase) RecordReminderSent(ctx context.Context, in RecordInput) (*activity.Activity, error) {
	if in.LoanID == "" {
		return nil, apperr.Validation("loan_id is required")
	}
	if strings.TrimSpace(in.ActorID) == "" {
		return nil, apperr.Validation("actor_id is required")
	}
	if in.DueDate.IsZero() {
		return nil, apperr.Validation("due_date is required")
	}
	due := in.DueDate.UTC().Truncate(time.Second)
	now := u.at(time.Time{})
	var out *activity.Activity
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		a := &activity.Activity{
			ActivityID:   id.NewID32(),
			LoanID:       l.LoanID,
			ActivityType: activity.TypeReminderSent,
			Description:  "reminder for installment due " + due.Format("2006-01-02"),
			PerformedBy:  in.ActorID,
			PerformedAt:  now,
			DueDate:      &due,
		}
		if err := r.Activities.Append(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if errors.Is(err, activity.ErrDuplicateReminder) {
		u.logger.Info("reminder already recorded", "loan_id", in.LoanID, "due_date", due)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

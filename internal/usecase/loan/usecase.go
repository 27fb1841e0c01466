package loan

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/amortization"
	"sfd-loan-engine/internal/domain/apperr"
	domain "sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/domain/settings"
	"sfd-loan-engine/internal/domain/uow"
	"sfd-loan-engine/internal/metrics"
	"sfd-loan-engine/internal/notifier"
	"sfd-loan-engine/pkg/id"

	"github.com/shopspring/decimal"
)

type Usecase struct {
	uow        uow.UnitOfWork
	loans      domain.Repository
	activities activity.Repository
	settings   settings.Provider
	calc       *amortization.Calculator
	pub        notifier.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithPublisher(p notifier.Publisher) Option { return func(u *Usecase) { u.pub = p } }

func WithLogger(l *slog.Logger) Option { return func(u *Usecase) { u.logger = l } }

// NewUsecase: loans and activities serve reads; every write goes through tx.
func NewUsecase(tx uow.UnitOfWork, loans domain.Repository, activities activity.Repository,
	sp settings.Provider, calc *amortization.Calculator, opts ...Option) *Usecase {
	u := &Usecase{
		uow:        tx,
		loans:      loans,
		activities: activities,
		settings:   sp,
		calc:       calc,
		pub:        notifier.Nop{},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// clock is UTC at second precision so stored dates compare exactly.
func (u *Usecase) clock() time.Time { return u.now().UTC().Truncate(time.Second) }

func (in SubmitInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(in.SfdID) == "" {
		missing = append(missing, "sfd_id")
	}
	if strings.TrimSpace(in.ActorID) == "" {
		missing = append(missing, "actor_id")
	}
	if len(missing) > 0 {
		return apperr.Validation("%s required", strings.Join(missing, ", "))
	}
	if !in.Amount.IsPositive() {
		return apperr.Validation("amount must be greater than 0")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return apperr.Validation("amount has more than 2 decimals")
	}
	if in.DurationMonths < 1 {
		return apperr.Validation("duration_months must be at least 1")
	}
	if in.InterestRate.IsNegative() {
		return apperr.Validation("interest_rate must not be negative")
	}
	if in.SubsidyAmount.IsNegative() || in.SubsidyAmount.GreaterThan(in.Amount) {
		return apperr.Validation("subsidy_amount must be between 0 and amount")
	}
	return nil
}

// Submit creates a pending loan after checking the SFD's lending limits.
func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*domain.Loan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	limits, err := u.settings.ForSfd(ctx, in.SfdID)
	if err != nil {
		return nil, err
	}
	if err := limits.Validate(in.Amount, in.DurationMonths, in.InterestRate); err != nil {
		return nil, err
	}

	now := u.clock()
	l := &domain.Loan{
		LoanID:          id.NewID32(),
		ClientID:        in.ClientID,
		SfdID:           in.SfdID,
		Amount:          in.Amount,
		DurationMonths:  in.DurationMonths,
		InterestRate:    in.InterestRate,
		Purpose:         in.Purpose,
		SubsidyAmount:   in.SubsidyAmount,
		Status:          domain.StatusPending,
		AmountPaid:      decimal.Zero,
		StatusUpdatedAt: now,
		CreatedAt:       now,
	}
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		return r.Activities.Append(ctx, newActivity(l.LoanID, activity.TypeCreated, in.ActorID, now,
			"loan of "+l.Amount.String()+" over "+strconv.Itoa(l.DurationMonths)+" months submitted"))
	})
	if err != nil {
		return nil, err
	}
	u.logger.Info("loan submitted", "loan_id", l.LoanID, "sfd_id", l.SfdID, "amount", l.Amount.String())
	u.pub.Publish(notifier.NewEvent(notifier.EventLoanCreated, l, "", now))
	return l, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*domain.Loan, error) {
	if loanID == "" {
		return nil, apperr.Validation("loan_id is required")
	}
	return u.loans.GetByLoanID(ctx, loanID)
}

// List serves both SFD staff (SfdID set) and the umbrella view (SfdID empty).
func (u *Usecase) List(ctx context.Context, in ListInput) (*LoanPage, error) {
	f := domain.ListFilter{SfdID: in.SfdID, Limit: in.Limit, Offset: in.Offset}
	if in.Status != "" {
		st, ok := domain.ParseStatus(in.Status)
		if !ok {
			return nil, apperr.Validation("unknown status %q", in.Status)
		}
		f.Status = st
	}
	if in.Offset < 0 {
		return nil, apperr.Validation("offset must not be negative")
	}
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	items, total, err := u.loans.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Loan{}
	}
	return &LoanPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// Schedule re-derives the installment plan from the loan's immutable terms.
func (u *Usecase) Schedule(ctx context.Context, loanID string) (*ScheduleDTO, error) {
	l, err := u.Get(ctx, loanID)
	if err != nil {
		return nil, err
	}
	start, projected := u.clock(), true
	if l.DisbursedAt != nil {
		start, projected = *l.DisbursedAt, false
	}
	plan, err := u.calc.Plan(termsOf(l), start)
	if err != nil {
		return nil, err
	}
	if l.MonthlyPayment.Valid && !plan.MonthlyPayment.Equal(l.MonthlyPayment.Decimal) {
		// The stored payment is authoritative; a mismatch means the currency
		// scale changed after approval.
		u.logger.Warn("schedule differs from approved monthly payment",
			"loan_id", l.LoanID, "stored", l.MonthlyPayment.Decimal.String(), "derived", plan.MonthlyPayment.String())
	}
	return &ScheduleDTO{LoanID: l.LoanID, Projected: projected, Plan: plan}, nil
}

func (u *Usecase) Activities(ctx context.Context, loanID string) ([]activity.Activity, error) {
	if _, err := u.Get(ctx, loanID); err != nil {
		return nil, err
	}
	out, err := u.activities.ListByLoanID(ctx, loanID)
	if out == nil && err == nil {
		out = []activity.Activity{}
	}
	return out, err
}

func termsOf(l *domain.Loan) amortization.Terms {
	return amortization.Terms{
		Principal:         l.Amount,
		AnnualRatePercent: l.InterestRate,
		DurationMonths:    l.DurationMonths,
	}
}

func newActivity(loanID string, typ activity.Type, actor string, at time.Time, desc string) *activity.Activity {
	return &activity.Activity{
		ActivityID:   id.NewID32(),
		LoanID:       loanID,
		ActivityType: typ,
		Description:  desc,
		PerformedBy:  actor,
		PerformedAt:  at,
	}
}

// committed records metrics and publishes once the transaction is durable.
func (u *Usecase) committed(l *domain.Loan, from domain.Status, at time.Time) {
	metrics.LoanTransitions.WithLabelValues(string(from), string(l.Status)).Inc()
	u.logger.Info("loan transitioned", "loan_id", l.LoanID, "from", from, "to", l.Status, "version", l.Version)
	u.pub.Publish(notifier.NewEvent(notifier.EventStatusChanged, l, from, at))
}

func (u *Usecase) failed(op string, loanID string, err error) {
	if errors.Is(err, apperr.ErrConcurrentModification) {
		metrics.TransitionConflicts.WithLabelValues(op).Inc()
	}
	u.logger.Warn("loan "+op+" failed", "loan_id", loanID, "kind", apperr.KindOf(err), "error", err)
}

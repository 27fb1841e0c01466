package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/amortization"
	"sfd-loan-engine/internal/domain/apperr"
	"sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/testutil/loanmock"
	"sfd-loan-engine/internal/testutil/memstore"
	loanuc "sfd-loan-engine/internal/usecase/loan"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var disbursedAt = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

var quiet = slog.New(slog.NewJSONHandler(io.Discard, nil))

func seedActive(t *testing.T, store *memstore.Store, n int) []*loan.Loan {
	t.Helper()
	loans := loanuc.NewUsecase(store, store.Loans(), store.Activities(), memstore.NewSettings(),
		amortization.NewCalculator(0), loanuc.WithClock(func() time.Time { return disbursedAt }), loanuc.WithLogger(quiet))
	ctx := context.Background()
	var out []*loan.Loan
	for i := 0; i < n; i++ {
		l, err := loans.Submit(ctx, loanuc.SubmitInput{
			ClientID: "CL", SfdID: "SFD-A", Amount: decimal.NewFromInt(120_000), DurationMonths: 6,
			InterestRate: decimal.NewFromInt(12), ActorID: "agent",
		})
		require.NoError(t, err)
		_, err = loans.Approve(ctx, loanuc.ApproveInput{LoanID: l.LoanID, ActorID: "o"})
		require.NoError(t, err)
		l, err = loans.Disburse(ctx, loanuc.DisburseInput{LoanID: l.LoanID, ActorID: "o"})
		require.NoError(t, err)
		out = append(out, l)
	}
	return out
}

func TestDueForReminder_Window(t *testing.T) {
	store := memstore.New()
	seeded := seedActive(t, store, 2)
	uc := NewUsecase(store, store.Loans(), store.Activities(), WithWindow(72*time.Hour), WithLogger(quiet))
	ctx := context.Background()
	due := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

	got, err := uc.DueForReminder(ctx, due.Add(-4*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got, "outside the window")

	got, err = uc.DueForReminder(ctx, due.Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, due, got[0].DueDate)
	assert.True(t, got[0].MonthlyPayment.IsPositive())

	got, err = uc.DueForReminder(ctx, due.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got, "past due dates are for the default sweep, not reminders")

	_, err = uc.RecordReminderSent(ctx, RecordInput{LoanID: seeded[0].LoanID, DueDate: due, ActorID: "sms-gateway"})
	require.NoError(t, err)

	got, err = uc.DueForReminder(ctx, due.Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, seeded[1].LoanID, got[0].LoanID)

	one, err := uc.DueForLoan(ctx, seeded[0].LoanID, due.Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, one)
	one, err = uc.DueForLoan(ctx, seeded[1].LoanID, due.Add(-48*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, due, one.DueDate)
}

func TestRecordReminderSent_OncePerDueDate(t *testing.T) {
	store := memstore.New()
	l := seedActive(t, store, 1)[0]
	uc := NewUsecase(store, store.Loans(), store.Activities(), WithLogger(quiet))
	ctx := context.Background()
	due := *l.NextPaymentDate

	a, err := uc.RecordReminderSent(ctx, RecordInput{LoanID: l.LoanID, DueDate: due, ActorID: "sms"})
	require.NoError(t, err)
	assert.Equal(t, activity.TypeReminderSent, a.ActivityType)

	_, err = uc.RecordReminderSent(ctx, RecordInput{LoanID: l.LoanID, DueDate: due, ActorID: "sms"})
	require.ErrorIs(t, err, apperr.ErrDuplicateRequest)

	acts, _ := store.Activities().ListByLoanID(ctx, l.LoanID)
	n := 0
	for _, a := range acts {
		if a.ActivityType == activity.TypeReminderSent {
			n++
		}
	}
	assert.Equal(t, 1, n)

	_, err = uc.RecordReminderSent(ctx, RecordInput{LoanID: l.LoanID, DueDate: amortization.AddMonths(due, 1), ActorID: "sms"})
	require.NoError(t, err, "next due date gets its own reminder")

	_, err = uc.RecordReminderSent(ctx, RecordInput{LoanID: "missing", DueDate: due, ActorID: "sms"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = uc.RecordReminderSent(ctx, RecordInput{LoanID: l.LoanID, ActorID: "sms"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDueForReminder_PropagatesRepositoryError(t *testing.T) {
	boom := apperr.Persistence("list due loans", errors.New("connection reset"))
	loans := &loanmock.Repo{
		ListActiveDueBetweenFn: func(context.Context, time.Time, time.Time) ([]loan.Loan, error) { return nil, boom },
	}
	uc := NewUsecase(nil, loans, nil, WithLogger(quiet))
	_, err := uc.DueForReminder(context.Background(), time.Now())
	if !errors.Is(err, apperr.ErrPersistenceFailure) {
		t.Fatalf("want persistence failure, got %v", err)
	}
}

type stubDefaults struct {
	n   int
	err error
}

func (s stubDefaults) MarkDefaults(context.Context) (int, error) { return s.n, s.err }

type stubReleaser struct {
	n   int
	ttl time.Duration
}

func (s *stubReleaser) ReleaseStale(_ context.Context, ttl time.Duration) (int, error) {
	s.ttl = ttl
	return s.n, nil
}

func TestSweep_RunsEveryStep(t *testing.T) {
	store := memstore.New()
	seedActive(t, store, 1)
	uc := NewUsecase(store, store.Loans(), store.Activities(), WithLogger(quiet))
	rel := &stubReleaser{n: 3}
	failure := errors.New("defaults failed")
	s := NewSweeper(uc, stubDefaults{n: 2, err: failure}, rel, 48*time.Hour, quiet)

	res, err := s.Sweep(context.Background(), time.Date(2026, 6, 9, 12, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, failure)
	assert.Len(t, res.Due, 1)
	assert.Equal(t, 2, res.Defaulted)
	assert.Equal(t, 3, res.Released, "a failing step does not stop the rest")
	assert.Equal(t, 48*time.Hour, rel.ttl)
}

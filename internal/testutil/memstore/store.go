// Package memstore is an in-memory uow.UnitOfWork for usecase tests.
//
// Transactions are serialized by one mutex and work on a copy of the state
// that replaces the committed state only when fn succeeds and the context
// is still live. WithinLoanTx reads the loan before taking the mutex, the
// way a non-locking read inside a database transaction can see a row that
// another transaction is about to change, so compare-and-swap conflicts
// surface the same way they do against the real database.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/apperr"
	"sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/domain/payment"
	"sfd-loan-engine/internal/domain/subsidy"
	"sfd-loan-engine/internal/domain/uow"
)

var _ uow.UnitOfWork = (*Store)(nil)

type state struct {
	seq          uint64
	loans        map[string]loan.Loan
	allocations  map[string]subsidy.Allocation
	reservations map[string]subsidy.Reservation
	payments     []payment.Payment
	activities   []activity.Activity
}

func (s *state) clone() *state {
	c := &state{
		seq:          s.seq,
		loans:        make(map[string]loan.Loan, len(s.loans)),
		allocations:  make(map[string]subsidy.Allocation, len(s.allocations)),
		reservations: make(map[string]subsidy.Reservation, len(s.reservations)),
		payments:     append([]payment.Payment(nil), s.payments...),
		activities:   append([]activity.Activity(nil), s.activities...),
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	for k, v := range s.allocations {
		c.allocations[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	return c
}

func (s *state) nextID() uint64 {
	s.seq++
	return s.seq
}

type Store struct {
	mu        sync.Mutex
	committed *state

	// Fail, when set, is consulted before every repository call with the
	// operation name ("loans.CompareAndSwap", ...); a non-nil error is returned
	// from that call.
	Fail func(op string) error
}

func New() *Store {
	return &Store{committed: &state{
		loans:        map[string]loan.Loan{},
		allocations:  map[string]subsidy.Allocation{},
		reservations: map[string]subsidy.Reservation{},
	}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, fn)
}

func (s *Store) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	snap, err := s.Loans().GetByLoanID(ctx, loanID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, func(r uow.Repos) error { return fn(r, snap) })
}

func (s *Store) run(ctx context.Context, fn func(r uow.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("begin transaction", err)
	}
	work := s.committed.clone()
	if err := fn(s.repos(work, true)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("commit transaction", err)
	}
	s.committed = work
	return nil
}

func (s *Store) repos(st *state, inTx bool) uow.Repos {
	b := binding{store: s, st: st, inTx: inTx}
	return uow.Repos{
		Loans:      &LoanRepo{b},
		Subsidies:  &SubsidyRepo{b},
		Payments:   &PaymentRepo{b},
		Activities: &ActivityRepo{b},
	}
}

// Loans and friends return repositories bound to the committed state, for
// usecase reads outside a transaction.
func (s *Store) Loans() *LoanRepo { return &LoanRepo{binding{store: s}} }
func (s *Store) Subsidies() *SubsidyRepo { return &SubsidyRepo{binding{store: s}} }
func (s *Store) Payments() *PaymentRepo { return &PaymentRepo{binding{store: s}} }
func (s *Store) Activities() *ActivityRepo { return &ActivityRepo{binding{store: s}} }

type binding struct {
	store *Store
	st    *state
	inTx  bool
}

// do runs fn against the bound state, taking the store mutex when not in a tx.
func (b binding) do(ctx context.Context, op string, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence(op, err)
	}
	if b.store.Fail != nil {
		if err := b.store.Fail(op); err != nil {
			return err
		}
	}
	if b.inTx {
		return fn(b.st)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return fn(b.store.committed)
}

type LoanRepo struct{ binding }

func (r *LoanRepo) Create(ctx context.Context, l *loan.Loan) error {
	return r.do(ctx, "loans.Create", func(st *state) error {
		if _, ok := st.loans[l.LoanID]; ok {
			return apperr.New(apperr.KindDuplicateRequest, "loan id already exists")
		}
		l.ID = st.nextID()
		if l.Version == 0 {
			l.Version = 1
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now().UTC()
		}
		l.UpdatedAt = l.CreatedAt
		st.loans[l.LoanID] = *l
		return nil
	})
}

func (r *LoanRepo) GetByLoanID(ctx context.Context, loanID string) (*loan.Loan, error) {
	var out loan.Loan
	err := r.do(ctx, "loans.GetByLoanID", func(st *state) error {
		l, ok := st.loans[loanID]
		if !ok {
			return loan.ErrNotFound
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *LoanRepo) List(ctx context.Context, f loan.ListFilter) ([]loan.Loan, int64, error) {
	var out []loan.Loan
	var total int64
	err := r.do(ctx, "loans.List", func(st *state) error {
		var all []loan.Loan
		for _, l := range st.loans {
			if (f.SfdID == "" || l.SfdID == f.SfdID) && (f.Status == "" || l.Status == f.Status) {
				all = append(all, l)
			}
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.After(all[j].CreatedAt)
			}
			return all[i].ID > all[j].ID
		})
		total = int64(len(all))
		limit := f.Limit
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		if f.Offset < len(all) {
			all = all[f.Offset:]
			if len(all) > limit {
				all = all[:limit]
			}
			out = all
		}
		return nil
	})
	return out, total, err
}

func (r *LoanRepo) CompareAndSwap(ctx context.Context, l *loan.Loan, expected loan.Status) error {
	return r.do(ctx, "loans.CompareAndSwap", func(st *state) error {
		cur, ok := st.loans[l.LoanID]
		if !ok || cur.Status != expected || cur.Version != l.Version {
			return loan.ErrStaleVersion
		}
		next := *l
		next.ID = cur.ID
		next.ClientID, next.SfdID, next.CreatedAt = cur.ClientID, cur.SfdID, cur.CreatedAt
		next.Version = l.Version + 1
		next.UpdatedAt = time.Now().UTC()
		st.loans[l.LoanID] = next
		l.Version = next.Version
		return nil
	})
}

func (r *LoanRepo) ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]loan.Loan, error) {
	return r.active(ctx, "loans.ListActiveDueBetween", func(due time.Time) bool {
		return !due.Before(from) && !due.After(to)
	})
}

func (r *LoanRepo) ListActiveOverdue(ctx context.Context, cutoff time.Time) ([]loan.Loan, error) {
	return r.active(ctx, "loans.ListActiveOverdue", func(due time.Time) bool { return due.Before(cutoff) })
}

func (r *LoanRepo) active(ctx context.Context, op string, match func(time.Time) bool) ([]loan.Loan, error) {
	var out []loan.Loan
	err := r.do(ctx, op, func(st *state) error {
		for _, l := range st.loans {
			if l.Status == loan.StatusActive && l.NextPaymentDate != nil && match(*l.NextPaymentDate) {
				out = append(out, l)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].NextPaymentDate.Equal(*out[j].NextPaymentDate) {
				return out[i].NextPaymentDate.Before(*out[j].NextPaymentDate)
			}
			return out[i].ID < out[j].ID
		})
		return nil
	})
	return out, err
}

type SubsidyRepo struct{ binding }

func (r *SubsidyRepo) GetBySfdID(ctx context.Context, sfdID string) (*subsidy.Allocation, error) {
	var out subsidy.Allocation
	err := r.do(ctx, "subsidies.GetBySfdID", func(st *state) error {
		a, ok := st.allocations[sfdID]
		if !ok {
			return subsidy.ErrNotFound
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SubsidyRepo) List(ctx context.Context) ([]subsidy.Allocation, error) {
	var out []subsidy.Allocation
	err := r.do(ctx, "subsidies.List", func(st *state) error {
		for _, a := range st.allocations {
			out = append(out, a)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].SfdID < out[j].SfdID })
		return nil
	})
	return out, err
}

func (r *SubsidyRepo) Create(ctx context.Context, a *subsidy.Allocation) error {
	return r.do(ctx, "subsidies.Create", func(st *state) error {
		if _, ok := st.allocations[a.SfdID]; ok {
			return apperr.New(apperr.KindDuplicateRequest, "allocation already exists")
		}
		a.ID = st.nextID()
		if a.Version == 0 {
			a.Version = 1
		}
		st.allocations[a.SfdID] = *a
		return nil
	})
}

func (r *SubsidyRepo) CompareAndSwap(ctx context.Context, a *subsidy.Allocation) error {
	return r.do(ctx, "subsidies.CompareAndSwap", func(st *state) error {
		cur, ok := st.allocations[a.SfdID]
		if !ok || cur.Version != a.Version {
			return subsidy.ErrStaleVersion
		}
		next := *a
		next.ID = cur.ID
		next.Version = a.Version + 1
		st.allocations[a.SfdID] = next
		a.Version = next.Version
		return nil
	})
}

func (r *SubsidyRepo) CreateReservation(ctx context.Context, res *subsidy.Reservation) error {
	return r.do(ctx, "subsidies.CreateReservation", func(st *state) error {
		if _, ok := st.reservations[res.LoanID]; ok {
			return apperr.New(apperr.KindDuplicateRequest, "reservation already exists")
		}
		res.ID = st.nextID()
		st.reservations[res.LoanID] = *res
		return nil
	})
}

func (r *SubsidyRepo) GetReservationByLoanID(ctx context.Context, loanID string) (*subsidy.Reservation, error) {
	var out subsidy.Reservation
	err := r.do(ctx, "subsidies.GetReservationByLoanID", func(st *state) error {
		res, ok := st.reservations[loanID]
		if !ok {
			return subsidy.ErrReservationNotFound
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SubsidyRepo) MoveReservation(ctx context.Context, loanID string, from, to subsidy.ReservationStatus, at time.Time) (bool, error) {
	var moved bool
	err := r.do(ctx, "subsidies.MoveReservation", func(st *state) error {
		res, ok := st.reservations[loanID]
		if !ok || res.Status != from {
			return nil
		}
		res.Status = to
		res.SettledAt = &at
		st.reservations[loanID] = res
		moved = true
		return nil
	})
	return moved, err
}

func (r *SubsidyRepo) ListReservedBefore(ctx context.Context, cutoff time.Time, limit int) ([]subsidy.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []subsidy.Reservation
	err := r.do(ctx, "subsidies.ListReservedBefore", func(st *state) error {
		for _, res := range st.reservations {
			if res.Status == subsidy.ReservationReserved && res.ReservedAt.Before(cutoff) {
				out = append(out, res)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ReservedAt.Before(out[j].ReservedAt) })
		if len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

type PaymentRepo struct{ binding }

func (r *PaymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	return r.do(ctx, "payments.Create", func(st *state) error {
		for _, existing := range st.payments {
			if existing.LoanID == p.LoanID && existing.IdempotencyKey == p.IdempotencyKey {
				return payment.ErrDuplicate
			}
		}
		p.ID = st.nextID()
		st.payments = append(st.payments, *p)
		return nil
	})
}

func (r *PaymentRepo) GetByIdempotencyKey(ctx context.Context, loanID, key string) (*payment.Payment, error) {
	var out *payment.Payment
	err := r.do(ctx, "payments.GetByIdempotencyKey", func(st *state) error {
		for _, p := range st.payments {
			if p.LoanID == loanID && p.IdempotencyKey == key {
				cp := p
				out = &cp
				return nil
			}
		}
		return payment.ErrNotFound
	})
	return out, err
}

func (r *PaymentRepo) ListByLoanID(ctx context.Context, loanID string) ([]payment.Payment, error) {
	var out []payment.Payment
	err := r.do(ctx, "payments.ListByLoanID", func(st *state) error {
		for _, p := range st.payments {
			if p.LoanID == loanID {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

type ActivityRepo struct{ binding }

func (r *ActivityRepo) Append(ctx context.Context, a *activity.Activity) error {
	return r.do(ctx, "activities.Append", func(st *state) error {
		if a.ActivityType == activity.TypeReminderSent && a.DueDate != nil {
			for _, existing := range st.activities {
				if existing.LoanID == a.LoanID && existing.ActivityType == activity.TypeReminderSent &&
					existing.DueDate != nil && existing.DueDate.Equal(*a.DueDate) {
					return activity.ErrDuplicateReminder
				}
			}
		}
		a.ID = st.nextID()
		st.activities = append(st.activities, *a)
		return nil
	})
}

func (r *ActivityRepo) ListByLoanID(ctx context.Context, loanID string) ([]activity.Activity, error) {
	var out []activity.Activity
	err := r.do(ctx, "activities.ListByLoanID", func(st *state) error {
		for _, a := range st.activities {
			if a.LoanID == loanID {
				out = append(out, a)
			}
		}
		return nil
	})
	return out, err
}

func (r *ActivityRepo) HasReminder(ctx context.Context, loanID string, dueDate time.Time) (bool, error) {
	var found bool
	err := r.do(ctx, "activities.HasReminder", func(st *state) error {
		for _, a := range st.activities {
			if a.LoanID == loanID && a.ActivityType == activity.TypeReminderSent &&
				a.DueDate != nil && a.DueDate.Equal(dueDate) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

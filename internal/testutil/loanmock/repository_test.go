package loanmock

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "sfd-loan-engine/internal/domain/loan"
)

func TestRepo_Create(t *testing.T) {
	ctx := context.Background()
	l := &domain.Loan{LoanID: "LN-1"}

	called := false
	wantErr := errors.New("boom")
	m := &Repo{
		CreateFn: func(gotCtx context.Context, got *domain.Loan) error {
			called = true
			if got != l {
				t.Fatalf("Create arg mismatch")
			}
			return wantErr
		},
	}
	if err := m.Create(ctx, l); !errors.Is(err, wantErr) {
		t.Fatalf("Create: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("CreateFn not called")
	}

	// Default (nil func) → no-op, nil error
	m = &Repo{}
	if err := m.Create(ctx, l); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
}

func TestRepo_GetByLoanID(t *testing.T) {
	ctx := context.Background()
	want := &domain.Loan{LoanID: "LN-2"}

	m := &Repo{
		GetByLoanIDFn: func(_ context.Context, loanID string) (*domain.Loan, error) {
			if loanID != "LN-2" {
				t.Fatalf("GetByLoanID loanID mismatch: got %s", loanID)
			}
			return want, nil
		},
	}
	got, err := m.GetByLoanID(ctx, "LN-2")
	if err != nil || got != want {
		t.Fatalf("GetByLoanID: got %+v, %v", got, err)
	}

	// Default (nil func) → context.Canceled
	m = &Repo{}
	got, err = m.GetByLoanID(ctx, "LN-2")
	if err != context.Canceled || got != nil {
		t.Fatalf("GetByLoanID default: got %+v, %v", got, err)
	}
}

func TestRepo_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	l := &domain.Loan{LoanID: "LN-3", Version: 4, Status: domain.StatusApproved}

	// Default bumps the version like a successful update.
	m := &Repo{}
	if err := m.CompareAndSwap(ctx, l, domain.StatusPending); err != nil {
		t.Fatalf("CompareAndSwap default: %v", err)
	}
	if l.Version != 5 {
		t.Fatalf("version = %d, want 5", l.Version)
	}

	m = &Repo{
		CompareAndSwapFn: func(_ context.Context, got *domain.Loan, expected domain.Status) error {
			if expected != domain.StatusPending {
				t.Fatalf("expected status = %s", expected)
			}
			return domain.ErrStaleVersion
		},
	}
	if err := m.CompareAndSwap(ctx, l, domain.StatusPending); !errors.Is(err, domain.ErrStaleVersion) {
		t.Fatalf("CompareAndSwap: want stale version, got %v", err)
	}
}

func TestRepo_ListDefaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}
	if _, _, err := m.List(ctx, domain.ListFilter{}); err != context.Canceled {
		t.Fatalf("List default: %v", err)
	}
	if _, err := m.ListActiveDueBetween(ctx, time.Now(), time.Now()); err != context.Canceled {
		t.Fatalf("ListActiveDueBetween default: %v", err)
	}
	if _, err := m.ListActiveOverdue(ctx, time.Now()); err != context.Canceled {
		t.Fatalf("ListActiveOverdue default: %v", err)
	}
}

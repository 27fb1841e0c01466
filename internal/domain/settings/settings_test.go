package settings

import (
	"errors"
	"testing"

	"sfd-loan-engine/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

func sample() *SfdLoanSettings {
	return &SfdLoanSettings{
		SfdID:             "sfd-1",
		MinAmount:         decimal.NewFromInt(10000),
		MaxAmount:         decimal.NewFromInt(5000000),
		MinDurationMonths: 1,
		MaxDurationMonths: 36,
		MaxInterestRate:   decimal.NewFromInt(30),
		GracePeriodDays:   15,
		Active:            true,
	}
}

func TestValidate(t *testing.T) {
	s := sample()
	ok := s.Validate(decimal.NewFromInt(250000), 12, decimal.RequireFromString("5.5"))
	if ok != nil {
		t.Fatalf("unexpected: %v", ok)
	}

	bad := []struct {
		amount   int64
		duration int
		rate     string
	}{
		{9999, 12, "5"},
		{5000001, 12, "5"},
		{250000, 0, "5"},
		{250000, 37, "5"},
		{250000, 12, "30.01"},
		{250000, 12, "-1"},
	}
	for _, b := range bad {
		err := s.Validate(decimal.NewFromInt(b.amount), b.duration, decimal.RequireFromString(b.rate))
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%+v: want validation error, got %v", b, err)
		}
	}
}

func TestValidate_Suspended(t *testing.T) {
	s := sample()
	s.Active = false
	if err := s.Validate(decimal.NewFromInt(250000), 12, decimal.Zero); !errors.Is(err, ErrSfdSuspended) {
		t.Fatalf("want ErrSfdSuspended, got %v", err)
	}
}

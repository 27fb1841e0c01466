// Package settings reads per-SFD lending limits maintained by the SFD
// administration screens.
package settings

import (
	"context"

	"sfd-loan-engine/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var ErrSfdSuspended = apperr.New(apperr.KindValidation, "sfd is suspended")

// Table: sfd_loan_settings
type SfdLoanSettings struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	SfdID             string          `gorm:"column:sfd_id;size:64;uniqueIndex:ux_sfd_loan_settings_sfd" json:"sfd_id"`
	MinAmount         decimal.Decimal `gorm:"column:min_amount;type:decimal(18,2);not null" json:"min_amount"`
	MaxAmount         decimal.Decimal `gorm:"column:max_amount;type:decimal(18,2);not null" json:"max_amount"`
	MinDurationMonths int             `gorm:"column:min_duration_months;not null" json:"min_duration_months"`
	MaxDurationMonths int             `gorm:"column:max_duration_months;not null" json:"max_duration_months"`
	MaxInterestRate   decimal.Decimal `gorm:"column:max_interest_rate;type:decimal(7,4);not null" json:"max_interest_rate"`
	GracePeriodDays   int             `gorm:"column:grace_period_days;not null" json:"grace_period_days"`
	Active            bool            `gorm:"column:active;not null;default:true" json:"active"`
}

func (SfdLoanSettings) TableName() string { return "sfd_loan_settings" }

// Provider resolves the limits for an SFD, falling back to configured defaults.
type Provider interface {
	ForSfd(ctx context.Context, sfdID string) (*SfdLoanSettings, error)
}

// Validate checks a loan request against the limits.
func (s *SfdLoanSettings) Validate(amount decimal.Decimal, durationMonths int, rate decimal.Decimal) error {
	if !s.Active {
		return ErrSfdSuspended
	}
	if amount.LessThan(s.MinAmount) || amount.GreaterThan(s.MaxAmount) {
		return apperr.Validation("amount must be between %s and %s", s.MinAmount, s.MaxAmount)
	}
	if durationMonths < s.MinDurationMonths || durationMonths > s.MaxDurationMonths {
		return apperr.Validation("duration_months must be between %d and %d", s.MinDurationMonths, s.MaxDurationMonths)
	}
	if rate.IsNegative() || rate.GreaterThan(s.MaxInterestRate) {
		return apperr.Validation("interest_rate must be between 0 and %s", s.MaxInterestRate)
	}
	return nil
}

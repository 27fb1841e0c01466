package subsidy

import (
	"time"

	"sfd-loan-engine/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound            = apperr.New(apperr.KindNotFound, "subsidy allocation not found")
	ErrInsufficient        = apperr.New(apperr.KindInsufficientSubsidy, "insufficient subsidy balance")
	ErrStaleVersion        = apperr.New(apperr.KindConcurrentModification, "subsidy allocation was modified concurrently")
	ErrReservationNotFound = apperr.New(apperr.KindNotFound, "subsidy reservation not found")
)

// Table: subsidy_allocations (one row per SFD)
type Allocation struct {
	ID              uint64          `gorm:"primaryKey;column:id" json:"-"`
	SfdID           string          `gorm:"column:sfd_id;size:64;uniqueIndex:ux_subsidy_allocations_sfd" json:"sfd_id"`
	AllocatedAmount decimal.Decimal `gorm:"column:allocated_amount;type:decimal(18,2);not null" json:"allocated_amount"`
	UsedAmount      decimal.Decimal `gorm:"column:used_amount;type:decimal(18,2);not null" json:"used_amount"`
	ReservedAmount  decimal.Decimal `gorm:"column:reserved_amount;type:decimal(18,2);not null" json:"reserved_amount"`
	Version         int64           `gorm:"column:version;not null;default:1" json:"version"`
	UpdatedBy       string          `gorm:"column:updated_by;size:64" json:"updated_by,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Allocation) TableName() string { return "subsidy_allocations" }

// Remaining is the amount still available for new reservations.
func (a *Allocation) Remaining() decimal.Decimal {
	return a.AllocatedAmount.Sub(a.UsedAmount).Sub(a.ReservedAmount)
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("subsidy amount must be greater than 0")
	}
	return nil
}

// Reserve holds amount against the remaining balance.
func (a *Allocation) Reserve(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if a.Remaining().LessThan(amount) {
		return apperr.Wrap(apperr.KindInsufficientSubsidy,
			"sfd "+a.SfdID+" has "+a.Remaining().String()+" remaining, "+amount.String()+" requested", ErrInsufficient)
	}
	a.ReservedAmount = a.ReservedAmount.Add(amount)
	return nil
}

// Commit turns a previously reserved amount into a permanent debit.
func (a *Allocation) Commit(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if a.ReservedAmount.LessThan(amount) {
		return apperr.Newf(apperr.KindInvalidTransition, "sfd %s has only %s reserved, cannot commit %s", a.SfdID, a.ReservedAmount, amount)
	}
	a.ReservedAmount = a.ReservedAmount.Sub(amount)
	a.UsedAmount = a.UsedAmount.Add(amount)
	return nil
}

// Release returns a reservation to the available pool.
func (a *Allocation) Release(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if a.ReservedAmount.LessThan(amount) {
		return apperr.Newf(apperr.KindInvalidTransition, "sfd %s has only %s reserved, cannot release %s", a.SfdID, a.ReservedAmount, amount)
	}
	a.ReservedAmount = a.ReservedAmount.Sub(amount)
	return nil
}

// Allocate tops up the umbrella allocation.
func (a *Allocation) Allocate(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	a.AllocatedAmount = a.AllocatedAmount.Add(amount)
	return nil
}

// Revoke withdraws unreserved, unused funds.
func (a *Allocation) Revoke(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if a.Remaining().LessThan(amount) {
		return apperr.Wrap(apperr.KindInsufficientSubsidy,
			"cannot revoke "+amount.String()+", only "+a.Remaining().String()+" unreserved", ErrInsufficient)
	}
	a.AllocatedAmount = a.AllocatedAmount.Sub(amount)
	return nil
}

type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationCommitted ReservationStatus = "committed"
	ReservationReleased  ReservationStatus = "released"
)

// Table: subsidy_reservations (one row per loan)
type Reservation struct {
	ID         uint64            `gorm:"primaryKey;column:id" json:"-"`
	LoanID     string            `gorm:"column:loan_id;size:32;uniqueIndex:ux_subsidy_reservations_loan" json:"loan_id"`
	SfdID      string            `gorm:"column:sfd_id;size:64;index" json:"sfd_id"`
	Amount     decimal.Decimal   `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Status     ReservationStatus `gorm:"column:status;type:varchar(16);not null;index:idx_subsidy_reservations_status_at" json:"status"`
	ReservedAt time.Time         `gorm:"column:reserved_at;not null;index:idx_subsidy_reservations_status_at" json:"reserved_at"`
	SettledAt  *time.Time        `gorm:"column:settled_at" json:"settled_at,omitempty"`
}

func (Reservation) TableName() string { return "subsidy_reservations" }

package loan

import (
	"time"

	"sfd-loan-engine/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = apperr.New(apperr.KindNotFound, "loan not found")
	ErrStaleVersion   = apperr.New(apperr.KindConcurrentModification, "loan was modified concurrently")
	ErrNotActive      = apperr.New(apperr.KindInvalidTransition, "loan is not active")
	ErrReasonRequired = apperr.New(apperr.KindValidation, "rejection reason is required")
)

// Table: loans
type Loan struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID         string          `gorm:"column:loan_id;size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	ClientID       string          `gorm:"column:client_id;size:64;index:idx_loans_client" json:"client_id"`
	SfdID          string          `gorm:"column:sfd_id;size:64;index:idx_loans_sfd_status" json:"sfd_id"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	DurationMonths int             `gorm:"column:duration_months;not null" json:"duration_months"`
	InterestRate   decimal.Decimal `gorm:"column:interest_rate;type:decimal(7,4);not null" json:"interest_rate"`
	Purpose        string          `gorm:"column:purpose;type:text" json:"purpose"`
	SubsidyAmount  decimal.Decimal `gorm:"column:subsidy_amount;type:decimal(18,2);not null" json:"subsidy_amount"`
	Status         Status          `gorm:"column:status;type:varchar(16);not null;index:idx_loans_sfd_status;index:idx_loans_status_next_due" json:"status"`

	MonthlyPayment   decimal.NullDecimal `gorm:"column:monthly_payment;type:decimal(18,2)" json:"monthly_payment"`
	TotalDue         decimal.NullDecimal `gorm:"column:total_due;type:decimal(18,2)" json:"total_due"`
	AmountPaid       decimal.Decimal     `gorm:"column:amount_paid;type:decimal(18,2);not null" json:"amount_paid"`
	InstallmentsPaid int                 `gorm:"column:installments_paid;not null;default:0" json:"installments_paid"`

	ApprovedAt      *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	ApprovedBy      string     `gorm:"column:approved_by;size:64" json:"approved_by,omitempty"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejected_at,omitempty"`
	RejectedBy      string     `gorm:"column:rejected_by;size:64" json:"rejected_by,omitempty"`
	RejectionReason string     `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`
	DisbursedAt     *time.Time `gorm:"column:disbursed_at" json:"disbursed_at,omitempty"`
	DisbursedBy     string     `gorm:"column:disbursed_by;size:64" json:"disbursed_by,omitempty"`
	LastPaymentDate *time.Time `gorm:"column:last_payment_date" json:"last_payment_date,omitempty"`
	NextPaymentDate *time.Time `gorm:"column:next_payment_date;index:idx_loans_status_next_due" json:"next_payment_date,omitempty"`
	CompletedAt     *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	DefaultedAt     *time.Time `gorm:"column:defaulted_at" json:"defaulted_at,omitempty"`

	Version         int64     `gorm:"column:version;not null;default:1" json:"version"`
	StatusUpdatedAt time.Time `gorm:"column:status_updated_at" json:"status_updated_at"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Outstanding is what remains to be paid against the approved schedule.
func (l *Loan) Outstanding() decimal.Decimal {
	if !l.TotalDue.Valid {
		return decimal.Zero
	}
	out := l.TotalDue.Decimal.Sub(l.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Transition checks that the loan may move from its current status to next,
// assuming the caller read it while it was expected.
//
// A loan that already moved past expected (another actor won the race) is a
// concurrent modification; one that can never reach next from where it is
// is an invalid transition.
func (l *Loan) Transition(expected, next Status) error {
	if !CanTransition(expected, next) {
		return apperr.Newf(apperr.KindInvalidTransition, "cannot move loan from %s to %s", expected, next)
	}
	if l.Status == expected {
		return nil
	}
	if Reachable(expected, l.Status) {
		return apperr.Newf(apperr.KindConcurrentModification, "loan %s is already %s", l.LoanID, l.Status)
	}
	return apperr.Newf(apperr.KindInvalidTransition, "loan %s is %s, expected %s", l.LoanID, l.Status, expected)
}

// ListFilter narrows loan listings. An empty SfdID lists across SFDs.
type ListFilter struct {
	SfdID  string
	Status Status
	Limit  int
	Offset int
}

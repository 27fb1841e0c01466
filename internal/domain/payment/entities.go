package payment

import (
	"time"

	"sfd-loan-engine/internal/domain/apperr"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = apperr.New(apperr.KindNotFound, "payment not found")
	ErrDuplicate = apperr.New(apperr.KindDuplicateRequest, "payment with this idempotency key already recorded")
)

type Method string

const (
	MethodCash         Method = "cash"
	MethodMobileMoney  Method = "mobile_money"
	MethodBankTransfer Method = "bank_transfer"
	MethodOther        Method = "other"
)

func ParseMethod(s string) (Method, bool) {
	switch m := Method(s); m {
	case MethodCash, MethodMobileMoney, MethodBankTransfer, MethodOther:
		return m, true
	}
	return "", false
}

// Table: payments
type Payment struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	PaymentID      string          `gorm:"column:payment_id;size:32;uniqueIndex:ux_payments_payment_id" json:"payment_id"`
	LoanID         string          `gorm:"column:loan_id;size:32;not null;uniqueIndex:ux_payments_loan_idempotency;index" json:"loan_id"`
	IdempotencyKey string          `gorm:"column:idempotency_key;size:128;not null;uniqueIndex:ux_payments_loan_idempotency" json:"idempotency_key"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Method         Method          `gorm:"column:method;type:varchar(32);not null" json:"method"`
	RecordedBy     string          `gorm:"column:recorded_by;size:64;not null" json:"recorded_by"`
	RecordedAt     time.Time       `gorm:"column:recorded_at;not null" json:"recorded_at"`
}

func (Payment) TableName() string { return "payments" }

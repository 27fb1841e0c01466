package mysql

import (
	"context"
	"errors"

	"sfd-loan-engine/internal/domain/apperr"
	paymentDomain "sfd-loan-engine/internal/domain/payment"

	"gorm.io/gorm"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *paymentDomain.Payment) error {
	err := translate("create payment", r.db.WithContext(ctx).Create(p).Error, nil)
	if errors.Is(err, apperr.ErrDuplicateRequest) {
		return paymentDomain.ErrDuplicate
	}
	return err
}

func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, loanID, key string) (*paymentDomain.Payment, error) {
	var out paymentDomain.Payment
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND idempotency_key = ?", loanID, key).
		First(&out)
	if res.Error != nil {
		return nil, translate("get payment", res.Error, paymentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *PaymentRepository) ListByLoanID(ctx context.Context, loanID string) ([]paymentDomain.Payment, error) {
	var out []paymentDomain.Payment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("recorded_at ASC, id ASC").
		Find(&out).Error
	return out, translate("list payments", err, nil)
}

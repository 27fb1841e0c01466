package mysql

import (
	"context"
	"time"

	loanDomain "sfd-loan-engine/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	if l.Version == 0 {
		l.Version = 1
	}
	return translate("create loan", r.db.WithContext(ctx).Create(l).Error, nil)
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, translate("get loan", res.Error, loanDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *LoanRepository) List(ctx context.Context, f loanDomain.ListFilter) ([]loanDomain.Loan, int64, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Loan{})
	if f.SfdID != "" {
		q = q.Where("sfd_id = ?", f.SfdID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate("count loans", err, nil)
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []loanDomain.Loan
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset).Find(&out).Error
	if err != nil {
		return nil, 0, translate("list loans", err, nil)
	}
	return out, total, nil
}

// CompareAndSwap writes every mutable column guarded by (status, version).
func (r *LoanRepository) CompareAndSwap(ctx context.Context, l *loanDomain.Loan, expected loanDomain.Status) error {
	next := l.Version + 1
	res := r.db.WithContext(ctx).Model(&loanDomain.Loan{}).
		Where("loan_id = ? AND status = ? AND version = ?", l.LoanID, expected, l.Version).
		Updates(map[string]any{
			"status":            l.Status,
			"monthly_payment":   l.MonthlyPayment,
			"total_due":         l.TotalDue,
			"amount_paid":       l.AmountPaid,
			"installments_paid": l.InstallmentsPaid,
			"approved_at":       l.ApprovedAt,
			"approved_by":       l.ApprovedBy,
			"rejected_at":       l.RejectedAt,
			"rejected_by":       l.RejectedBy,
			"rejection_reason":  l.RejectionReason,
			"disbursed_at":      l.DisbursedAt,
			"disbursed_by":      l.DisbursedBy,
			"last_payment_date": l.LastPaymentDate,
			"next_payment_date": l.NextPaymentDate,
			"completed_at":      l.CompletedAt,
			"defaulted_at":      l.DefaultedAt,
			"status_updated_at": l.StatusUpdatedAt,
			"version":           next,
		})
	if res.Error != nil {
		return translate("update loan", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return loanDomain.ErrStaleVersion
	}
	l.Version = next
	return nil
}

func (r *LoanRepository) ListActiveDueBetween(ctx context.Context, from, to time.Time) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_payment_date >= ? AND next_payment_date <= ?", loanDomain.StatusActive, from, to).
		Order("next_payment_date ASC, id ASC").
		Find(&out).Error
	return out, translate("list due loans", err, nil)
}

func (r *LoanRepository) ListActiveOverdue(ctx context.Context, cutoff time.Time) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_payment_date < ?", loanDomain.StatusActive, cutoff).
		Order("next_payment_date ASC, id ASC").
		Find(&out).Error
	return out, translate("list overdue loans", err, nil)
}

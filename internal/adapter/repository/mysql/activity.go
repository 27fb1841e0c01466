package mysql

import (
	"context"
	"errors"
	"time"

	activityDomain "sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/apperr"

	"gorm.io/gorm"
)

type ActivityRepository struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) *ActivityRepository { return &ActivityRepository{db: db} }

func (r *ActivityRepository) Append(ctx context.Context, a *activityDomain.Activity) error {
	err := translate("append loan activity", r.db.WithContext(ctx).Create(a).Error, nil)
	if a.ActivityType == activityDomain.TypeReminderSent && errors.Is(err, apperr.ErrDuplicateRequest) {
		return activityDomain.ErrDuplicateReminder
	}
	return err
}

func (r *ActivityRepository) ListByLoanID(ctx context.Context, loanID string) ([]activityDomain.Activity, error) {
	var out []activityDomain.Activity
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("performed_at ASC, id ASC").
		Find(&out).Error
	return out, translate("list loan activities", err, nil)
}

func (r *ActivityRepository) HasReminder(ctx context.Context, loanID string, dueDate time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&activityDomain.Activity{}).
		Where("loan_id = ? AND activity_type = ? AND due_date = ?", loanID, activityDomain.TypeReminderSent, dueDate).
		Count(&n).Error
	if err != nil {
		return false, translate("check reminder", err, nil)
	}
	return n > 0, nil
}

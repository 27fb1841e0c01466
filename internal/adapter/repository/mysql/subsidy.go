package mysql

import (
	"context"
	"time"

	subsidyDomain "sfd-loan-engine/internal/domain/subsidy"

	"gorm.io/gorm"
)

type SubsidyRepository struct{ db *gorm.DB }

func NewSubsidyRepository(db *gorm.DB) *SubsidyRepository { return &SubsidyRepository{db: db} }

func (r *SubsidyRepository) GetBySfdID(ctx context.Context, sfdID string) (*subsidyDomain.Allocation, error) {
	var out subsidyDomain.Allocation
	res := r.db.WithContext(ctx).Where("sfd_id = ?", sfdID).First(&out)
	if res.Error != nil {
		return nil, translate("get subsidy allocation", res.Error, subsidyDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *SubsidyRepository) List(ctx context.Context) ([]subsidyDomain.Allocation, error) {
	var out []subsidyDomain.Allocation
	err := r.db.WithContext(ctx).Order("sfd_id ASC").Find(&out).Error
	return out, translate("list subsidy allocations", err, nil)
}

func (r *SubsidyRepository) Create(ctx context.Context, a *subsidyDomain.Allocation) error {
	if a.Version == 0 {
		a.Version = 1
	}
	return translate("create subsidy allocation", r.db.WithContext(ctx).Create(a).Error, nil)
}

func (r *SubsidyRepository) CompareAndSwap(ctx context.Context, a *subsidyDomain.Allocation) error {
	next := a.Version + 1
	res := r.db.WithContext(ctx).Model(&subsidyDomain.Allocation{}).
		Where("sfd_id = ? AND version = ?", a.SfdID, a.Version).
		Updates(map[string]any{
			"allocated_amount": a.AllocatedAmount,
			"used_amount":      a.UsedAmount,
			"reserved_amount":  a.ReservedAmount,
			"updated_by":       a.UpdatedBy,
			"version":          next,
		})
	if res.Error != nil {
		return translate("update subsidy allocation", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return subsidyDomain.ErrStaleVersion
	}
	a.Version = next
	return nil
}

func (r *SubsidyRepository) CreateReservation(ctx context.Context, res *subsidyDomain.Reservation) error {
	return translate("create subsidy reservation", r.db.WithContext(ctx).Create(res).Error, nil)
}

func (r *SubsidyRepository) GetReservationByLoanID(ctx context.Context, loanID string) (*subsidyDomain.Reservation, error) {
	var out subsidyDomain.Reservation
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, translate("get subsidy reservation", res.Error, subsidyDomain.ErrReservationNotFound)
	}
	return &out, nil
}

func (r *SubsidyRepository) MoveReservation(ctx context.Context, loanID string, from, to subsidyDomain.ReservationStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&subsidyDomain.Reservation{}).
		Where("loan_id = ? AND status = ?", loanID, from).
		Updates(map[string]any{"status": to, "settled_at": at})
	if res.Error != nil {
		return false, translate("settle subsidy reservation", res.Error, nil)
	}
	return res.RowsAffected == 1, nil
}

// ListReservedBefore returns open reservations older than cutoff, oldest first.
func (r *SubsidyRepository) ListReservedBefore(ctx context.Context, cutoff time.Time, limit int) ([]subsidyDomain.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []subsidyDomain.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND reserved_at < ?", subsidyDomain.ReservationReserved, cutoff).
		Order("reserved_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	return out, translate("list stale reservations", err, nil)
}

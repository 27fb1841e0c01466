package mysql

import (
	"context"
	"errors"

	settingsDomain "sfd-loan-engine/internal/domain/settings"

	"gorm.io/gorm"
)

// SettingsRepository reads sfd_loan_settings; SFDs without a row get Defaults.
type SettingsRepository struct {
	db       *gorm.DB
	Defaults settingsDomain.SfdLoanSettings
}

func NewSettingsRepository(db *gorm.DB, defaults settingsDomain.SfdLoanSettings) *SettingsRepository {
	return &SettingsRepository{db: db, Defaults: defaults}
}

func (r *SettingsRepository) ForSfd(ctx context.Context, sfdID string) (*settingsDomain.SfdLoanSettings, error) {
	var out settingsDomain.SfdLoanSettings
	err := r.db.WithContext(ctx).Where("sfd_id = ?", sfdID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d := r.Defaults
		d.SfdID = sfdID
		d.Active = true
		return &d, nil
	}
	if err != nil {
		return nil, translate("get sfd settings", err, nil)
	}
	return &out, nil
}

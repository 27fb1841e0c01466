package mysql

import (
	"sfd-loan-engine/internal/domain/activity"
	"sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/internal/domain/payment"
	"sfd-loan-engine/internal/domain/settings"
	"sfd-loan-engine/internal/domain/subsidy"

	"gorm.io/gorm"
)

// Models lists every table owned by the engine.
func Models() []any {
	return []any{
		&loan.Loan{},
		&subsidy.Allocation{},
		&subsidy.Reservation{},
		&payment.Payment{},
		&activity.Activity{},
		&settings.SfdLoanSettings{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

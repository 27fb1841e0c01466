package mysql

import (
	"testing"
	"time"

	"sfd-loan-engine/internal/domain/loan"
	"sfd-loan-engine/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// openTestDB creates an in-memory sqlite DB with the full schema. A single
// connection keeps every query on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func makeLoan(sfdID string, status loan.Status) *loan.Loan {
	return &loan.Loan{
		LoanID:          id.NewID32(),
		ClientID:        "client-1",
		SfdID:           sfdID,
		Amount:          decimal.NewFromInt(250000),
		DurationMonths:  12,
		InterestRate:    decimal.RequireFromString("5.5"),
		Purpose:         "market stall stock",
		SubsidyAmount:   decimal.Zero,
		AmountPaid:      decimal.Zero,
		Status:          status,
		StatusUpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

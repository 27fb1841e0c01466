package mysql

import (
	"context"
	"testing"

	domain "sfd-loan-engine/internal/domain/settings"

	"github.com/shopspring/decimal"
)

func TestSettings_DefaultsAndOverride(t *testing.T) {
	db := openTestDB(t)
	defaults := domain.SfdLoanSettings{
		MinAmount: decimal.NewFromInt(10000), MaxAmount: decimal.NewFromInt(5000000),
		MinDurationMonths: 1, MaxDurationMonths: 36, MaxInterestRate: decimal.NewFromInt(30), GracePeriodDays: 15,
	}
	repo := NewSettingsRepository(db, defaults)
	ctx := context.Background()

	got, err := repo.ForSfd(ctx, "sfd-x")
	if err != nil {
		t.Fatal(err)
	}
	if got.SfdID != "sfd-x" || !got.Active || got.GracePeriodDays != 15 {
		t.Fatalf("defaults = %+v", got)
	}

	row := defaults
	row.SfdID = "sfd-y"
	row.GracePeriodDays = 5
	row.Active = false
	if err := db.Create(&row).Error; err != nil {
		t.Fatal(err)
	}
	// gorm skips zero-value bools with a default tag on insert; force it.
	if err := db.Model(&domain.SfdLoanSettings{}).Where("sfd_id = ?", "sfd-y").Update("active", false).Error; err != nil {
		t.Fatal(err)
	}
	got, err = repo.ForSfd(ctx, "sfd-y")
	if err != nil {
		t.Fatal(err)
	}
	if got.Active || got.GracePeriodDays != 5 {
		t.Fatalf("override = %+v", got)
	}
}

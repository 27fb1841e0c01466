package activity

import (
	"time"

	"sfd-loan-engine/internal/domain/apperr"
)

var ErrDuplicateReminder = apperr.New(apperr.KindDuplicateRequest, "reminder already recorded for this due date")

type Type string

const (
	TypeCreated      Type = "created"
	TypeApproved     Type = "approved"
	TypeRejected     Type = "rejected"
	TypeDisbursed    Type = "disbursed"
	TypePayment      Type = "payment"
	TypeReminderSent Type = "reminder_sent"
	TypeDefaulted    Type = "defaulted"
	TypeCompleted    Type = "completed"
)

// Table: loan_activities. Rows are append-only. DueDate is only set for
// reminder_sent so that one reminder exists per due date.
type Activity struct {
	ID           uint64     `gorm:"primaryKey;column:id" json:"-"`
	ActivityID   string     `gorm:"column:activity_id;size:32;uniqueIndex:ux_loan_activities_activity_id" json:"activity_id"`
	LoanID       string     `gorm:"column:loan_id;size:32;not null;index;uniqueIndex:ux_loan_activities_reminder" json:"loan_id"`
	ActivityType Type       `gorm:"column:activity_type;type:varchar(32);not null;uniqueIndex:ux_loan_activities_reminder" json:"activity_type"`
	Description  string     `gorm:"column:description;type:text" json:"description"`
	PerformedBy  string     `gorm:"column:performed_by;size:64;not null" json:"performed_by"`
	PerformedAt  time.Time  `gorm:"column:performed_at;not null" json:"performed_at"`
	DueDate      *time.Time `gorm:"column:due_date;uniqueIndex:ux_loan_activities_reminder" json:"due_date,omitempty"`
}

func (Activity) TableName() string { return "loan_activities" }

package notifier

import (
	"time"

	"sfd-loan-engine/internal/domain/loan"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLoanCreated     EventType = "loan.created"
	EventStatusChanged   EventType = "loan.status_changed"
	EventPaymentRecorded EventType = "loan.payment_recorded"
)

// Event is emitted after a loan change commits. Consumers that miss one
// reconcile by re-reading the loan.
type Event struct {
	EventID   string      `json:"event_id"`
	Type      EventType   `json:"type"`
	LoanID    string      `json:"loan_id"`
	SfdID     string      `json:"sfd_id"`
	OldStatus loan.Status `json:"old_status,omitempty"`
	NewStatus loan.Status `json:"new_status"`
	Version   int64       `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewEvent(typ EventType, l *loan.Loan, old loan.Status, at time.Time) Event {
	return Event{
		EventID:   uuid.NewString(),
		Type:      typ,
		LoanID:    l.LoanID,
		SfdID:     l.SfdID,
		OldStatus: old,
		NewStatus: l.Status,
		Version:   l.Version,
		Timestamp: at.UTC(),
	}
}

// Publisher accepts events without blocking the caller.
type Publisher interface {
	Publish(evt Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(Event) {}

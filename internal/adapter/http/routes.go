package http

import (
	"github.com/labstack/echo/v4"
)

// Handlers groups everything Register mounts. A nil Stream disables the
// websocket routes.
type Handlers struct {
	Health   *Handler
	Loans    *LoanHandler
	Payments *PaymentHandler
	Reminder *ReminderHandler
	Subsidy  *SubsidyHandler
	Stream   *StreamHandler
}

// Register mounts the API. mutating wraps every state-changing route
// (request idempotency, for instance).
func Register(e *echo.Echo, h Handlers, mutating ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	e.POST("/loans", h.Loans.CreateLoan, mutating...)
	e.GET("/loans", h.Loans.ListLoans)
	e.GET("/loans/:loan_id", h.Loans.GetLoan)
	e.GET("/loans/:loan_id/schedule", h.Loans.Schedule)
	e.GET("/loans/:loan_id/activities", h.Loans.Activities)
	e.POST("/loans/:loan_id/approve", h.Loans.Approve, mutating...)
	e.POST("/loans/:loan_id/reject", h.Loans.Reject, mutating...)
	e.POST("/loans/:loan_id/disburse", h.Loans.Disburse, mutating...)

	e.GET("/loans/:loan_id/payments", h.Payments.List)
	e.POST("/loans/:loan_id/payments", h.Payments.Record, mutating...)

	e.GET("/reminders/due", h.Reminder.DueAll)
	e.GET("/loans/:loan_id/reminders/due", h.Reminder.DueForLoan)
	e.POST("/loans/:loan_id/reminders", h.Reminder.Record, mutating...)

	e.GET("/subsidies", h.Subsidy.List)
	e.GET("/subsidies/:sfd_id", h.Subsidy.Get)
	e.POST("/subsidies/:sfd_id/allocate", h.Subsidy.Allocate, mutating...)
	e.POST("/subsidies/:sfd_id/revoke", h.Subsidy.Revoke, mutating...)

	if h.Stream != nil {
		e.GET("/events", h.Stream.AllEvents)
		e.GET("/sfds/:sfd_id/events", h.Stream.SfdEvents)
	}
}

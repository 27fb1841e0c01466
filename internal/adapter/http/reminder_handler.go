package http

import (
	"net/http"
	"time"

	uc "sfd-loan-engine/internal/usecase/reminder"

	"github.com/labstack/echo/v4"
)

type ReminderHandler struct{ uc *uc.Usecase }

func NewReminderHandler(u *uc.Usecase) *ReminderHandler { return &ReminderHandler{uc: u} }

type recordReminderReq struct {
	LoanID  string    `param:"loan_id" json:"-" validate:"hex32"`
	DueDate time.Time `json:"due_date" validate:"required"`
	ActorID string    `json:"actor_id" validate:"required,max=64"`
}

// nowQuery reads ?now= (RFC3339); absent means the server clock.
func nowQuery(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("now")
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, validationErr("now must be an RFC3339 timestamp")
	}
	return t, nil
}

func (h *ReminderHandler) DueAll(c echo.Context) error {
	now, err := nowQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.DueForReminder(c.Request().Context(), now)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": list, "window": h.uc.Window().String()})
}

func (h *ReminderHandler) DueForLoan(c echo.Context) error {
	now, err := nowQuery(c)
	if err != nil {
		return writeError(c, err)
	}
	d, err := h.uc.DueForLoan(c.Request().Context(), c.Param("loan_id"), now)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"due": d != nil, "reminder": d})
}

func (h *ReminderHandler) Record(c echo.Context) error {
	var req recordReminderReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	a, err := h.uc.RecordReminderSent(c.Request().Context(), uc.RecordInput{
		LoanID:  c.Param("loan_id"),
		DueDate: req.DueDate,
		ActorID: req.ActorID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

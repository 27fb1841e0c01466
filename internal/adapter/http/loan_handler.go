package http

import (
	"net/http"
	"strconv"

	uc "sfd-loan-engine/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct{ uc *uc.Usecase }

func NewLoanHandler(u *uc.Usecase) *LoanHandler { return &LoanHandler{uc: u} }

type createLoanReq struct {
	ClientID       string          `json:"client_id" validate:"required,max=64"`
	SfdID          string          `json:"sfd_id" validate:"required,max=64"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0,dec2"`
	DurationMonths int             `json:"duration_months" validate:"gt=0"`
	InterestRate   decimal.Decimal `json:"interest_rate" validate:"gte=0"`
	Purpose        string          `json:"purpose"`
	SubsidyAmount  decimal.Decimal `json:"subsidy_amount" validate:"gte=0,dec2"`
	ActorID        string          `json:"actor_id" validate:"required,max=64"`
}

type approveReq struct {
	LoanID          string `param:"loan_id" json:"-" validate:"hex32"`
	ActorID         string `json:"actor_id" validate:"required,max=64"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type rejectReq struct {
	LoanID  string `param:"loan_id" json:"-" validate:"hex32"`
	ActorID string `json:"actor_id" validate:"required,max=64"`
	Reason  string `json:"reason" validate:"required"`
}

type disburseReq struct {
	LoanID  string `param:"loan_id" json:"-" validate:"hex32"`
	ActorID string `json:"actor_id" validate:"required,max=64"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.uc.Submit(c.Request().Context(), uc.SubmitInput{
		ClientID:       req.ClientID,
		SfdID:          req.SfdID,
		Amount:         req.Amount,
		DurationMonths: req.DurationMonths,
		InterestRate:   req.InterestRate,
		Purpose:        req.Purpose,
		SubsidyAmount:  req.SubsidyAmount,
		ActorID:        req.ActorID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	l, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	in := uc.ListInput{SfdID: c.QueryParam("sfd_id"), Status: c.QueryParam("status")}
	var err error
	if in.Limit, err = intQuery(c, "limit"); err != nil {
		return writeError(c, err)
	}
	if in.Offset, err = intQuery(c, "offset"); err != nil {
		return writeError(c, err)
	}
	page, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	s, err := h.uc.Schedule(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *LoanHandler) Activities(c echo.Context) error {
	list, err := h.uc.Activities(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": list})
}

func (h *LoanHandler) Approve(c echo.Context) error {
	var req approveReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.uc.Approve(c.Request().Context(), uc.ApproveInput{
		LoanID:          c.Param("loan_id"),
		ActorID:         req.ActorID,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) Reject(c echo.Context) error {
	var req rejectReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.uc.Reject(c.Request().Context(), uc.RejectInput{
		LoanID:  c.Param("loan_id"),
		ActorID: req.ActorID,
		Reason:  req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) Disburse(c echo.Context) error {
	var req disburseReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.uc.Disburse(c.Request().Context(), uc.DisburseInput{
		LoanID:  c.Param("loan_id"),
		ActorID: req.ActorID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func intQuery(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, validationErr("%s must be a non-negative integer", name)
	}
	return n, nil
}

package http

import (
	"errors"
	"net/http"

	domain "sfd-loan-engine/internal/domain/payment"
	uc "sfd-loan-engine/internal/usecase/payment"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct{ uc *uc.Usecase }

func NewPaymentHandler(u *uc.Usecase) *PaymentHandler { return &PaymentHandler{uc: u} }

type recordPaymentReq struct {
	LoanID         string          `param:"loan_id" json:"-" validate:"hex32"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0,dec2"`
	Method         string          `json:"method" validate:"required,oneof=cash mobile_money bank_transfer other"`
	ActorID        string          `json:"actor_id" validate:"required,max=64"`
	IdempotencyKey string          `json:"idempotency_key" validate:"required,max=128"`
}

// duplicatePaymentResp is the 409 body for a repeated idempotency key; it
// carries the payment that was recorded the first time.
type duplicatePaymentResp struct {
	ErrorResponse
	Payment *domain.Payment `json:"payment,omitempty"`
}

func (h *PaymentHandler) Record(c echo.Context) error {
	var req recordPaymentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.RecordPayment(c.Request().Context(), uc.RecordInput{
		LoanID:         c.Param("loan_id"),
		Amount:         req.Amount,
		Method:         req.Method,
		ActorID:        req.ActorID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		body := duplicatePaymentResp{ErrorResponse: ErrorResponse{Error: err.Error(), Kind: "duplicate_request"}}
		if res != nil {
			body.Payment = res.Payment
		}
		return c.JSON(http.StatusConflict, body)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PaymentHandler) List(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": list})
}

package http

import (
	"context"
	"net/http"

	domain "sfd-loan-engine/internal/domain/subsidy"
	uc "sfd-loan-engine/internal/usecase/subsidy"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type SubsidyHandler struct{ uc *uc.Usecase }

func NewSubsidyHandler(u *uc.Usecase) *SubsidyHandler { return &SubsidyHandler{uc: u} }

type subsidyAmountReq struct {
	Amount  decimal.Decimal `json:"amount" validate:"gt=0,dec2"`
	ActorID string          `json:"actor_id" validate:"required,max=64"`
}

// balanceResp adds the derived remaining balance to the stored row.
type balanceResp struct {
	*domain.Allocation
	Remaining decimal.Decimal `json:"remaining"`
}

func balanceOf(a *domain.Allocation) balanceResp {
	return balanceResp{Allocation: a, Remaining: a.Remaining()}
}

func (h *SubsidyHandler) List(c echo.Context) error {
	list, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	items := make([]balanceResp, 0, len(list))
	for i := range list {
		items = append(items, balanceOf(&list[i]))
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (h *SubsidyHandler) Get(c echo.Context) error {
	a, err := h.uc.Balance(c.Request().Context(), c.Param("sfd_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, balanceOf(a))
}

func (h *SubsidyHandler) Allocate(c echo.Context) error { return h.change(c, h.uc.Allocate) }

func (h *SubsidyHandler) Revoke(c echo.Context) error { return h.change(c, h.uc.Revoke) }

func (h *SubsidyHandler) change(c echo.Context, op func(context.Context, uc.AmountInput) (*domain.Allocation, error)) error {
	var req subsidyAmountReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	a, err := op(c.Request().Context(), uc.AmountInput{
		SfdID:   c.Param("sfd_id"),
		Amount:  req.Amount,
		ActorID: req.ActorID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, balanceOf(a))
}

package http

import (
	"errors"
	"net/http"

	"sfd-loan-engine/internal/domain/apperr"

	"github.com/labstack/echo/v4"
)

// StatusFor maps an error kind onto its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidTransition, apperr.KindInsufficientSubsidy:
		return http.StatusUnprocessableEntity
	case apperr.KindConcurrentModification, apperr.KindDuplicateRequest:
		return http.StatusConflict
	case apperr.KindPersistenceFailure:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders usecase errors. Unclassified errors are hidden behind
// a generic 500 and left to echo's logger.
func writeError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return c.JSON(status, ErrorResponse{Error: "internal error"})
	}
	if kind == apperr.KindPersistenceFailure {
		c.Response().Header().Set("Retry-After", "1")
	}
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Msg != "" && kind == apperr.KindPersistenceFailure {
		// driver details stay in the logs
		c.Logger().Error(err)
		msg = ae.Msg + " failed, retry later"
	}
	return c.JSON(status, ErrorResponse{Error: msg, Kind: string(kind)})
}

func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body", Kind: string(apperr.KindValidation)})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Kind:    string(apperr.KindValidation),
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

func validationErr(format string, args ...any) error { return apperr.Validation(format, args...) }

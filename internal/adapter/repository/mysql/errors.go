package mysql

import (
	"errors"

	"sfd-loan-engine/internal/domain/apperr"

	"gorm.io/gorm"
)

// translate maps driver errors to the domain taxonomy. notFound is returned
// as-is for missing rows so callers can errors.Is against their sentinel.
func translate(op string, err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.KindDuplicateRequest, op, err)
	}
	return apperr.Persistence(op, err)
}

package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gravadigital/residencia-api/internal/domain/common"
)

// translate maps gorm errors onto the domain sentinels, keeping the
// original error in the chain for logs.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, common.ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s references a missing record: %w", what, common.ErrBadRequest)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

package repository

import (
	"fmt"

	"table-booking/internal/data/entity"
)

// storeErr tags a driver failure with ErrStoreUnavailable while keeping the cause.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
}

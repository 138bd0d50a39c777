package repository

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	apperrors "github.com/briefstack/maildigest/internal/errors"
)

// isUniqueViolation detects duplicate-key failures from the sqlite driver.
// gorm's error translation covers most cases; the message check catches
// drivers that surface the raw constraint error.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func translateInsertError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicate
	}
	return err
}

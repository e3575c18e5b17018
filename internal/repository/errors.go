package repository

import (
	"errors"

	"github.com/Brandonkhumalo/ShopSync/internal/db"
)

var ErrNotFound = errors.New("not found")

// IsDuplicate detects unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}

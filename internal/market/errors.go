package market

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors for the business layer. Handlers map these onto HTTP
// statuses: ErrNotFound -> 404, ErrForbidden -> 403, ErrConflict -> 409,
// ErrValidation -> 400. Anything else is an internal error (500).
var (
	// ErrNotFound: referenced entity absent, or caller lacks visibility.
	ErrNotFound = errors.New("not found")
	// ErrForbidden: authenticated but wrong role for the action.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict: valid request, invalid current state.
	ErrConflict = errors.New("conflict")
	// ErrValidation: malformed or missing input.
	ErrValidation = errors.New("validation")
)

// isDuplicateKey reports whether an insert was rejected by a unique
// index. GORM only translates driver errors when TranslateError is on,
// so the MySQL and SQLite driver messages are matched directly.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

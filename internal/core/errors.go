package core

import "errors"

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidKind        = errors.New("invalid transaction type")
	ErrMissingCategory    = errors.New("expense requires a category")
	ErrInvalidCategory    = errors.New("unknown expense category")
	ErrInvalidDate        = errors.New("date cannot be zero")
	ErrInvalidOccurrences = errors.New("invalid number of occurrences")
	ErrNegativeBudget     = errors.New("budget amounts cannot be negative")
	ErrInvalidScope       = errors.New("invalid edit scope")
	ErrScopeRequired      = errors.New("scope is required for a series member")
	ErrInvalidMonthKey    = errors.New("invalid month key")

	ErrNotFound    = errors.New("transaction not found")
	ErrPersistence = errors.New("changes applied but not persisted")
)

var validationErrors = []error{
	ErrInvalidAmount,
	ErrEmptyDescription,
	ErrDescriptionTooLong,
	ErrInvalidKind,
	ErrMissingCategory,
	ErrInvalidCategory,
	ErrInvalidDate,
	ErrInvalidOccurrences,
	ErrNegativeBudget,
	ErrInvalidScope,
	ErrScopeRequired,
	ErrInvalidMonthKey,
}

// IsValidation reports whether err was caused by rejected user input.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

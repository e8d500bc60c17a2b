package guest

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Domain errors surfaced by the guest service.
var (
	// ErrAllocationExhausted indicates no free guest code was found within the
	// retry bound. It points at data corruption or extreme contention and is
	// a hard failure for the registration that hit it.
	ErrAllocationExhausted = errors.New("guest: identifier allocation exhausted")
	// ErrDuplicatePhone indicates the phone number is already registered.
	ErrDuplicatePhone = errors.New("guest: phone already registered")
	// ErrGuestNotFound indicates no guest matches the given identifier.
	ErrGuestNotFound = errors.New("guest: not found")
	// ErrInvalidCardType indicates an unknown invitation card type.
	ErrInvalidCardType = errors.New("guest: invalid card type")
)

// isUniqueViolation reports whether an error is a uniqueness-constraint
// violation on either supported dialect.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// isUniqueViolationOn reports whether the violation names the given column.
func isUniqueViolationOn(err error, column string) bool {
	return isUniqueViolation(err) && strings.Contains(err.Error(), column)
}

package validation

import (
	"fmt"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID      = fmt.Errorf("invalid UUID format")
	ErrInvalidDateRange = fmt.Errorf("invalid date range")
)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateDateRange checks that two YYYY-MM-DD dates form a valid range.
// Empty bounds are open-ended and always valid.
func ValidateDateRange(startDate, endDate string) error {
	if startDate == "" || endDate == "" {
		return nil
	}
	if startDate > endDate {
		return fmt.Errorf("%w: %s > %s", ErrInvalidDateRange, startDate, endDate)
	}
	return nil
}

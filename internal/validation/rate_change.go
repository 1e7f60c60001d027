package validation

import (
	"strings"
	"time"

	"github.com/tradingdiary/backend/internal/api/request"
)

// ValidateCreateRateChange validates a rate change creation request.
// A zero rate is valid; negative rates are not.
func ValidateCreateRateChange(req request.CreateRateChangeRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		errors["date"] = err.Error()
	}

	if req.Rate < 0 {
		errors["rate"] = "rate must be non-negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

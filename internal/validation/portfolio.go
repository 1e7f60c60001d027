package validation

import (
	"strings"

	"github.com/tradingdiary/backend/internal/api/request"
)

// ValidateCreatePortfolio validates a portfolio creation request.
func ValidateCreatePortfolio(req request.CreatePortfolioRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if req.Currency != "" && len(req.Currency) != 3 {
		errors["currency"] = "currency must be a 3-letter code"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/model"
)

// ValidSpotTransactionType contains the allowed spot transaction type values.
var ValidSpotTransactionType = map[string]bool{
	model.SpotBuy: true, model.SpotSell: true, model.SpotDeposit: true,
	model.SpotWithdraw: true, model.SpotDividend: true,
}

// ValidateCreateSpotTransaction validates a spot transaction creation request.
//
// Required fields:
//   - portfolioId: Must be a valid UUID
//   - ticker: Must be non-empty for BUY/SELL/DIVIDEND
//   - transactionType: Must be one of: BUY, SELL, DEPOSIT, WITHDRAW, DIVIDEND
//   - transactionDate: Must be in YYYY-MM-DD format
//   - price: Must be positive
//   - quantity: Must be positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateSpotTransaction(req request.CreateSpotTransactionRequest) error {
	if err := ValidateUUID(req.PortfolioID); err != nil {
		return err
	}

	errors := make(map[string]string)

	if strings.TrimSpace(req.Type) == "" {
		errors["transactionType"] = "transactionType is required"
	} else if !ValidSpotTransactionType[req.Type] {
		errors["transactionType"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	needsTicker := req.Type == model.SpotBuy || req.Type == model.SpotSell || req.Type == model.SpotDividend
	if needsTicker && strings.TrimSpace(req.Ticker) == "" {
		errors["ticker"] = "ticker is required for " + req.Type
	}

	if strings.TrimSpace(req.Date) == "" {
		errors["transactionDate"] = "transactionDate is required"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		errors["transactionDate"] = err.Error()
	}

	if req.Price <= 0 {
		errors["price"] = "price must be positive"
	}

	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateUpdateSpotTransaction validates a spot transaction update request.
// All fields are optional; provided fields must still be well-formed.
func ValidateUpdateSpotTransaction(req request.UpdateSpotTransactionRequest) error {
	errors := make(map[string]string)

	if req.Type != nil && !ValidSpotTransactionType[*req.Type] {
		errors["transactionType"] = fmt.Sprintf("invalid type: %s", *req.Type)
	}

	if req.Date != nil {
		if _, err := time.Parse("2006-01-02", *req.Date); err != nil {
			errors["transactionDate"] = err.Error()
		}
	}

	if req.Price != nil && *req.Price <= 0 {
		errors["price"] = "price must be positive"
	}

	if req.Quantity != nil && *req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

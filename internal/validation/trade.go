package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/model"
)

// ValidRateType contains the allowed financing rate type values.
var ValidRateType = map[string]bool{
	model.RateTypeFixed: true, model.RateTypeFloating: true,
}

// ValidateCreateTrade validates a trade creation request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - portfolioId: Must be a valid UUID
//   - symbol: Must be non-empty
//   - entryDate: Must be in YYYY-MM-DD format
//   - entryPrice: Must be positive
//   - quantity: Must be positive
//   - marginRate: Must be non-negative
//
// Optional financing fields must be internally consistent: leverage at
// least 1, borrowed and collateral amounts non-negative.
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateTrade(req request.CreateTradeRequest) error {
	if err := ValidateUUID(req.PortfolioID); err != nil {
		return err
	}

	errors := make(map[string]string)

	if strings.TrimSpace(req.Symbol) == "" {
		errors["symbol"] = "symbol is required"
	}

	if strings.TrimSpace(req.EntryDate) == "" {
		errors["entryDate"] = "entryDate is required"
	} else if _, err := time.Parse("2006-01-02", req.EntryDate); err != nil {
		errors["entryDate"] = err.Error()
	}

	if req.EntryPrice <= 0 {
		errors["entryPrice"] = "entryPrice must be positive"
	}

	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.MarginRate < 0 {
		errors["marginRate"] = "marginRate must be non-negative"
	}

	if req.Leverage != nil && *req.Leverage < 1 {
		errors["leverage"] = "leverage must be at least 1"
	}

	if req.BorrowedAmount != nil && *req.BorrowedAmount < 0 {
		errors["borrowedAmount"] = "borrowedAmount must be non-negative"
	}

	if req.CollateralAmount != nil && *req.CollateralAmount < 0 {
		errors["collateralAmount"] = "collateralAmount must be non-negative"
	}

	if req.MaintenanceMargin != nil && (*req.MaintenanceMargin < 0 || *req.MaintenanceMargin > 100) {
		errors["maintenanceMargin"] = "maintenanceMargin must be between 0 and 100"
	}

	if req.RateType != "" && !ValidRateType[req.RateType] {
		errors["rateType"] = fmt.Sprintf("invalid rate type: %s", req.RateType)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidFinancingEventType contains the allowed financing event type values.
var ValidFinancingEventType = map[string]bool{
	model.FinancingEventRateChange:      true,
	model.FinancingEventRepayment:       true,
	model.FinancingEventCollateralTopup: true,
}

// ValidateCreateFinancingEvent validates a financing event creation request.
// RATE_CHANGE events require a non-negative rate; REPAYMENT and
// COLLATERAL_TOPUP require a positive amount.
func ValidateCreateFinancingEvent(req request.CreateFinancingEventRequest) error {
	errors := make(map[string]string)

	if !ValidFinancingEventType[req.EventType] {
		errors["eventType"] = fmt.Sprintf("invalid event type: %s", req.EventType)
	}

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		errors["date"] = err.Error()
	}

	switch req.EventType {
	case model.FinancingEventRateChange:
		if req.Rate == nil {
			errors["rate"] = "rate is required for a rate change"
		} else if *req.Rate < 0 {
			errors["rate"] = "rate must be non-negative"
		}
	case model.FinancingEventRepayment, model.FinancingEventCollateralTopup:
		if req.Amount == nil {
			errors["amount"] = "amount is required"
		} else if *req.Amount <= 0 {
			errors["amount"] = "amount must be positive"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateCloseTrade validates a trade closure request.
func ValidateCloseTrade(req request.CloseTradeRequest) error {
	errors := make(map[string]string)

	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.ExitPrice <= 0 {
		errors["exitPrice"] = "exitPrice must be positive"
	}

	if strings.TrimSpace(req.ExitDate) == "" {
		errors["exitDate"] = "exitDate is required"
	} else if _, err := time.Parse("2006-01-02", req.ExitDate); err != nil {
		errors["exitDate"] = err.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// ValidateFifoClose validates a symbol-level FIFO close request.
func ValidateFifoClose(req request.FifoCloseRequest) error {
	if err := ValidateUUID(req.PortfolioID); err != nil {
		return err
	}

	errors := make(map[string]string)

	if strings.TrimSpace(req.Symbol) == "" {
		errors["symbol"] = "symbol is required"
	}

	if req.Quantity <= 0 {
		errors["quantity"] = "quantity must be positive"
	}

	if req.ExitPrice <= 0 {
		errors["exitPrice"] = "exitPrice must be positive"
	}

	if strings.TrimSpace(req.ExitDate) == "" {
		errors["exitDate"] = "exitDate is required"
	} else if _, err := time.Parse("2006-01-02", req.ExitDate); err != nil {
		errors["exitDate"] = err.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

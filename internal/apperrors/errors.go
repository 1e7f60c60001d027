package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrTradeNotFound indicates that a margin trade with the given ID does not exist.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrSpotTransactionNotFound indicates that a spot transaction with the given ID does not exist.
	ErrSpotTransactionNotFound = errors.New("spot transaction not found")

	// ErrRateChangeNotFound indicates that a rate change with the given ID does not exist.
	ErrRateChangeNotFound = errors.New("rate change not found")

	// ErrPriceNotFound indicates that no stored price exists for the requested ticker.
	ErrPriceNotFound = errors.New("price not found")

	// ErrNoOpenTrades indicates a FIFO close was requested for a symbol with no open trades.
	ErrNoOpenTrades = errors.New("no open trades for symbol")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrTradeAlreadyClosed indicates a closure was requested on a fully closed trade.
	ErrTradeAlreadyClosed = errors.New("trade already closed")

	// ErrCloseQuantityTooLarge indicates that a closure's quantity exceeds the
	// trade's remaining open quantity.
	ErrCloseQuantityTooLarge = errors.New("close quantity exceeds open quantity")

	// ErrInvalidLeverage indicates a leverage below 1.
	ErrInvalidLeverage = errors.New("leverage must be at least 1")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrTokenStorageDisabled indicates a quote API token write without an
	// encryption key configured.
	ErrTokenStorageDisabled = errors.New("token storage disabled: no encryption key configured")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data. Not due to missing entities or validation issues.
var (
	ErrFailedToRetrievePortfolios       = errors.New("failed to retrieve portfolios")
	ErrFailedToRetrieveTrades           = errors.New("failed to retrieve trades")
	ErrFailedToRetrieveTrade            = errors.New("failed to retrieve trade")
	ErrFailedToRetrieveSpotTransactions = errors.New("failed to retrieve spot transactions")
	ErrFailedToRetrieveRateChanges      = errors.New("failed to retrieve rate changes")
	ErrFailedToRetrievePrices           = errors.New("failed to retrieve prices")
	ErrFailedToRetrieveStatistics       = errors.New("failed to retrieve statistics")
	ErrFailedToRetrieveHistory          = errors.New("failed to retrieve portfolio history")
	ErrFailedToGetVersionInfo           = errors.New("failed to get version information")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrCorruptRateHistory indicates that stored rate-change rows could not be
	// decoded. Distinct from an intentionally empty history so callers can log
	// it rather than silently treating it as "no changes".
	ErrCorruptRateHistory = errors.New("corrupt rate change history")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)

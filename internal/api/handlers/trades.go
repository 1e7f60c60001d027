package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/api/response"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/service"
	"github.com/tradingdiary/backend/internal/validation"
)

// TradeHandler handles HTTP requests for margin trade endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the tradeService.
type TradeHandler struct {
	tradeService *service.TradeService
}

// NewTradeHandler creates a new TradeHandler with the provided service dependency.
func NewTradeHandler(tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
	}
}

// Trades handles GET requests to retrieve trades, optionally scoped to a
// portfolio via the portfolio_id query parameter.
//
// Endpoint: GET /api/trades?portfolio_id=...
// Response: 200 OK with array of Trade (closures included)
// Error: 400 Bad Request if portfolio_id is not a valid UUID
// Error: 500 Internal Server Error if retrieval fails
func (h *TradeHandler) Trades(w http.ResponseWriter, r *http.Request) {
	portfolioID := r.URL.Query().Get("portfolio_id")
	if portfolioID != "" {
		if err := validation.ValidateUUID(portfolioID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid portfolio_id", err.Error())
			return
		}
	}

	trades, err := h.tradeService.GetTrades(portfolioID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTrades.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, trades)
}

// GetTrade handles GET requests to retrieve a single trade by ID.
//
// Endpoint: GET /api/trades/{uuid}
// Response: 200 OK with Trade
// Error: 400 Bad Request if trade ID is invalid (validated by middleware)
// Error: 404 Not Found if trade not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	trade, err := h.tradeService.GetTrade(tradeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTrade.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, trade)
}

// CreateTrade handles POST requests to open a new margin trade.
// Financing fields not provided are derived from the ones that are.
//
// Endpoint: POST /api/trades
// Request Body: CreateTradeRequest
// Response: 201 Created with Trade
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *TradeHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	trade, err := h.tradeService.CreateTrade(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidLeverage) {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidLeverage.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to create trade", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, trade)
}

// BulkImport handles POST requests to import a batch of trades at once,
// typically rows parsed from a broker statement. Rows fail independently;
// the response reports imported trades and per-row rejections side by side.
//
// Endpoint: POST /api/trades/bulk-import
// Request Body: BulkImportTradesRequest (trades)
// Response: 200 OK with BulkImportReport
// Error: 400 Bad Request if the body is invalid or the batch empty
func (h *TradeHandler) BulkImport(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.BulkImportTradesRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Trades) == 0 {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "trades must not be empty")
		return
	}

	report := h.tradeService.BulkImportTrades(r.Context(), req.Trades)
	response.RespondJSON(w, http.StatusOK, report)
}

// UpdateTrade handles PUT requests to update a trade's notes.
//
// Endpoint: PUT /api/trades/{uuid}
// Request Body: UpdateTradeRequest (notes)
// Response: 200 OK with updated Trade
// Error: 400 Bad Request if trade ID is invalid (validated by middleware)
// Error: 404 Not Found if trade not found
// Error: 500 Internal Server Error if update fails
func (h *TradeHandler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	trade, err := h.tradeService.UpdateTrade(r.Context(), tradeID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to update trade", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, trade)
}

// DeleteTrade handles DELETE requests to remove a trade and its closures.
//
// Endpoint: DELETE /api/trades/{uuid}
// Response: 204 No Content
// Error: 400 Bad Request if trade ID is invalid (validated by middleware)
// Error: 404 Not Found if trade not found
// Error: 500 Internal Server Error if deletion fails
func (h *TradeHandler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	if err := h.tradeService.DeleteTrade(r.Context(), tradeID); err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete trade", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// CloseTrade handles POST requests to record a partial or full closure of
// one trade.
//
// Endpoint: POST /api/trades/{uuid}/close
// Request Body: CloseTradeRequest (quantity, exitPrice, exitDate)
// Response: 200 OK with updated Trade
// Error: 400 Bad Request if validation fails, the trade is already closed
// or the quantity exceeds the open quantity
// Error: 404 Not Found if trade not found
// Error: 500 Internal Server Error if the closure fails
func (h *TradeHandler) CloseTrade(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.CloseTradeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCloseTrade(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	trade, err := h.tradeService.CloseTrade(r.Context(), tradeID, req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTradeNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), err.Error())
		case errors.Is(err, apperrors.ErrTradeAlreadyClosed):
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrTradeAlreadyClosed.Error(), err.Error())
		case errors.Is(err, apperrors.ErrCloseQuantityTooLarge):
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrCloseQuantityTooLarge.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "failed to close trade", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, trade)
}

// FinancingEvents handles GET requests to list a trade's financing events.
//
// Endpoint: GET /api/trades/{uuid}/financing-events
// Response: 200 OK with array of FinancingEvent, ordered by date
// Error: 404 Not Found if trade not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TradeHandler) FinancingEvents(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	events, err := h.tradeService.GetFinancingEvents(tradeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve financing events", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, events)
}

// CreateFinancingEvent handles POST requests to record a rate change,
// repayment or collateral top-up against a single trade.
//
// Endpoint: POST /api/trades/{uuid}/financing-events
// Request Body: CreateFinancingEventRequest (eventType, date, amount or rate)
// Response: 201 Created with FinancingEvent
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if trade not found
// Error: 500 Internal Server Error if creation fails
func (h *TradeHandler) CreateFinancingEvent(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.CreateFinancingEventRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateFinancingEvent(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	event, err := h.tradeService.CreateFinancingEvent(r.Context(), tradeID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to create financing event", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, event)
}

// FifoClose handles POST requests to close a quantity of a symbol against
// open trades oldest-first. Leftover quantity is reported in the response.
//
// Endpoint: POST /api/trades/fifo-close
// Request Body: FifoCloseRequest (portfolioId, symbol, quantity, exitPrice, exitDate)
// Response: 200 OK with FifoCloseReport
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the symbol has no open trades
// Error: 500 Internal Server Error if the close fails
func (h *TradeHandler) FifoClose(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.FifoCloseRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateFifoClose(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	report, err := h.tradeService.FifoClose(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoOpenTrades) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrNoOpenTrades.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to close position", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, report)
}

// TradeDetails handles GET requests to retrieve the interest breakdown of a
// trade: the rate period table, accrued and daily interest, and savings
// versus the entry rate.
//
// Endpoint: GET /api/trades/{uuid}/details
// Response: 200 OK with TradeDetails
// Error: 400 Bad Request if trade ID is invalid (validated by middleware)
// Error: 404 Not Found if trade not found
// Error: 500 Internal Server Error if retrieval fails
func (h *TradeHandler) TradeDetails(w http.ResponseWriter, r *http.Request) {
	tradeID := chi.URLParam(r, "uuid")

	details, err := h.tradeService.GetTradeDetails(tradeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTradeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrTradeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveTrade.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, details)
}

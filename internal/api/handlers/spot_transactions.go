package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/api/response"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/service"
	"github.com/tradingdiary/backend/internal/validation"
)

// SpotTransactionHandler handles HTTP requests for spot transaction
// endpoints and the views derived from the ledger (open positions, FIFO
// analysis, cash flows, statistics). Mutating writes invalidate the
// portfolio's stored snapshots.
type SpotTransactionHandler struct {
	spotService     *service.SpotService
	snapshotService *service.SnapshotService
}

// NewSpotTransactionHandler creates a new SpotTransactionHandler with the provided service dependencies.
func NewSpotTransactionHandler(spotService *service.SpotService, snapshotService *service.SnapshotService) *SpotTransactionHandler {
	return &SpotTransactionHandler{
		spotService:     spotService,
		snapshotService: snapshotService,
	}
}

// invalidateSnapshots clears the stored snapshots of a portfolio after a
// ledger write. Failure does not fail the request; the scheduler rebuild is
// a full replace either way.
func (h *SpotTransactionHandler) invalidateSnapshots(r *http.Request, portfolioID string) {
	if err := h.snapshotService.Invalidate(r.Context(), portfolioID); err != nil {
		log.Printf("failed to invalidate snapshots for portfolio %s: %v", portfolioID, err)
	}
}

// portfolioIDQuery extracts and validates the portfolio_id query parameter.
// An empty value is allowed and means all portfolios.
func portfolioIDQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	portfolioID := r.URL.Query().Get("portfolio_id")
	if portfolioID != "" {
		if err := validation.ValidateUUID(portfolioID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid portfolio_id", err.Error())
			return "", false
		}
	}
	return portfolioID, true
}

// Transactions handles GET requests to retrieve the spot transaction ledger,
// optionally scoped to a portfolio.
//
// Endpoint: GET /api/spot-transactions?portfolio_id=...
// Response: 200 OK with array of SpotTransaction, date ascending
// Error: 400 Bad Request if portfolio_id is not a valid UUID
// Error: 500 Internal Server Error if retrieval fails
func (h *SpotTransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioIDQuery(w, r)
	if !ok {
		return
	}

	transactions, err := h.spotService.GetTransactions(portfolioID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSpotTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transactions)
}

// GetTransaction handles GET requests to retrieve a single spot transaction by ID.
//
// Endpoint: GET /api/spot-transactions/{uuid}
// Response: 200 OK with SpotTransaction
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if retrieval fails
func (h *SpotTransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	transaction, err := h.spotService.GetTransaction(transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSpotTransactionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrSpotTransactionNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSpotTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction handles POST requests to record a new spot transaction.
//
// Endpoint: POST /api/spot-transactions
// Request Body: CreateSpotTransactionRequest
// Response: 201 Created with SpotTransaction
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *SpotTransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateSpotTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateSpotTransaction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	transaction, err := h.spotService.CreateTransaction(r.Context(), req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create spot transaction", err.Error())
		return
	}

	h.invalidateSnapshots(r, transaction.PortfolioID)

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction handles PUT requests to update an existing spot transaction.
//
// Endpoint: PUT /api/spot-transactions/{uuid}
// Request Body: UpdateSpotTransactionRequest (all fields optional)
// Response: 200 OK with updated SpotTransaction
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware) or validation fails
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if update fails
func (h *SpotTransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	req, err := parseJSON[request.UpdateSpotTransactionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateUpdateSpotTransaction(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	transaction, err := h.spotService.UpdateTransaction(r.Context(), transactionID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrSpotTransactionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrSpotTransactionNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to update spot transaction", err.Error())
		return
	}

	h.invalidateSnapshots(r, transaction.PortfolioID)

	response.RespondJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction handles DELETE requests to remove a spot transaction.
//
// Endpoint: DELETE /api/spot-transactions/{uuid}
// Response: 204 No Content
// Error: 400 Bad Request if transaction ID is invalid (validated by middleware)
// Error: 404 Not Found if transaction not found
// Error: 500 Internal Server Error if deletion fails
func (h *SpotTransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "uuid")

	transaction, err := h.spotService.GetTransaction(transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSpotTransactionNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrSpotTransactionNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSpotTransactions.Error(), err.Error())
		return
	}

	if err := h.spotService.DeleteTransaction(r.Context(), transactionID); err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to delete spot transaction", err.Error())
		return
	}

	h.invalidateSnapshots(r, transaction.PortfolioID)

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// OpenPositions handles GET requests to retrieve the open holdings derived
// from the residual FIFO lots, marked at quoted or estimated prices.
//
// Endpoint: GET /api/spot-transactions/positions/open?portfolio_id=...
// Response: 200 OK with array of OpenPosition
// Error: 400 Bad Request if portfolio_id is not a valid UUID
// Error: 500 Internal Server Error if retrieval fails
func (h *SpotTransactionHandler) OpenPositions(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioIDQuery(w, r)
	if !ok {
		return
	}

	positions, err := h.spotService.GetOpenPositions(r.Context(), portfolioID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSpotTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, positions)
}

// FifoAnalysis handles GET requests to retrieve FIFO realized-match records,
// residual lots, totals and diagnostics, optionally narrowed to one ticker.
//
// Endpoint: GET /api/spot-transactions/fifo?portfolio_id=...&ticker=...
// Response: 200 OK with FifoAnalysis
// Error: 400 Bad Request if portfolio_id is not a valid UUID
// Error: 500 Internal Server Error if retrieval fails
func (h *SpotTransactionHandler) FifoAnalysis(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioIDQuery(w, r)
	if !ok {
		return
	}
	ticker := r.URL.Query().Get("ticker")

	analysis, err := h.spotService.GetFifoAnalysis(portfolioID, ticker)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSpotTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, analysis)
}

// CashFlows handles GET requests to retrieve the signed cash flow ledger
// with a running balance.
//
// Endpoint: GET /api/spot-transactions/cash?portfolio_id=...
// Response: 200 OK with array of CashFlow
// Error: 400 Bad Request if portfolio_id is not a valid UUID
// Error: 500 Internal Server Error if retrieval fails
func (h *SpotTransactionHandler) CashFlows(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioIDQuery(w, r)
	if !ok {
		return
	}

	flows, err := h.spotService.GetCashFlows(portfolioID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSpotTransactions.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, flows)
}

// Stats handles GET requests to retrieve the spot portfolio summary:
// realized results, open exposure and cash position.
//
// Endpoint: GET /api/spot-transactions/stats?portfolio_id=...
// Response: 200 OK with SpotStats
// Error: 400 Bad Request if portfolio_id is not a valid UUID
// Error: 500 Internal Server Error if retrieval fails
func (h *SpotTransactionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioIDQuery(w, r)
	if !ok {
		return
	}

	stats, err := h.spotService.GetStats(r.Context(), portfolioID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveStatistics.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/api/response"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/service"
)

// PriceHandler handles HTTP requests for stored stock prices and manual
// overrides.
type PriceHandler struct {
	priceService *service.PriceService
}

// NewPriceHandler creates a new PriceHandler with the provided service dependency.
func NewPriceHandler(priceService *service.PriceService) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
	}
}

// Prices handles GET requests to retrieve the best known price per ticker.
// Tickers without a stored price are fetched from the provider; failed
// fetches leave the ticker out of the response.
//
// Endpoint: GET /api/prices?tickers=SBER,GAZP
// Response: 200 OK with map of ticker to StockPrice
// Error: 400 Bad Request if no tickers are given
func (h *PriceHandler) Prices(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("tickers")
	if strings.TrimSpace(raw) == "" {
		response.RespondError(w, http.StatusBadRequest, "tickers query parameter is required", "")
		return
	}

	var tickers []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tickers = append(tickers, t)
		}
	}

	prices := h.priceService.GetPrices(r.Context(), tickers)
	response.RespondJSON(w, http.StatusOK, prices)
}

// SetOverride handles PUT requests to store a manual price for a ticker.
// Provider refreshes will not replace it.
//
// Endpoint: PUT /api/prices/{ticker}
// Request Body: SetPriceOverrideRequest (price)
// Response: 200 OK with StockPrice
// Error: 400 Bad Request if the body is invalid or the price non-positive
// Error: 500 Internal Server Error if storage fails
func (h *PriceHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	req, err := parseJSON[request.SetPriceOverrideRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Price <= 0 {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "price must be positive")
		return
	}

	price, err := h.priceService.SetOverride(r.Context(), ticker, req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to set price override", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, price)
}

// ClearOverride handles DELETE requests to remove a stored price. The next
// lookup falls through to the provider.
//
// Endpoint: DELETE /api/prices/{ticker}
// Response: 204 No Content
// Error: 404 Not Found if no price is stored for the ticker
// Error: 500 Internal Server Error if deletion fails
func (h *PriceHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	if err := h.priceService.ClearOverride(r.Context(), ticker); err != nil {
		if errors.Is(err, apperrors.ErrPriceNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrPriceNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to clear price", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

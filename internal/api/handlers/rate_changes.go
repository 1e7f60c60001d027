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

// RateChangeHandler handles HTTP requests for the central-bank rate change
// history used by floating-rate interest calculations.
type RateChangeHandler struct {
	rateChangeService *service.RateChangeService
}

// NewRateChangeHandler creates a new RateChangeHandler with the provided service dependency.
func NewRateChangeHandler(rateChangeService *service.RateChangeService) *RateChangeHandler {
	return &RateChangeHandler{
		rateChangeService: rateChangeService,
	}
}

// RateChanges handles GET requests to retrieve the rate change history,
// date ascending.
//
// Endpoint: GET /api/rate-changes
// Response: 200 OK with array of RateChange
// Error: 500 Internal Server Error if retrieval fails
func (h *RateChangeHandler) RateChanges(w http.ResponseWriter, _ *http.Request) {
	changes, err := h.rateChangeService.GetRateChanges()
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveRateChanges.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, changes)
}

// CreateRateChange handles POST requests to record a new rate change.
//
// Endpoint: POST /api/rate-changes
// Request Body: CreateRateChangeRequest (date, rate, reason)
// Response: 201 Created with RateChange
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *RateChangeHandler) CreateRateChange(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CreateRateChangeRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCreateRateChange(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	change, err := h.rateChangeService.CreateRateChange(r.Context(), req)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to create rate change", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, change)
}

// DeleteRateChange handles DELETE requests to remove a rate change.
//
// Endpoint: DELETE /api/rate-changes/{uuid}
// Response: 204 No Content
// Error: 400 Bad Request if the ID is invalid (validated by middleware)
// Error: 404 Not Found if the rate change does not exist
// Error: 500 Internal Server Error if deletion fails
func (h *RateChangeHandler) DeleteRateChange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "uuid")

	if err := h.rateChangeService.DeleteRateChange(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrRateChangeNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrRateChangeNotFound.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to delete rate change", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/api/response"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/service"
)

// SystemHandler handles system-related HTTP requests
type SystemHandler struct {
	systemService *service.SystemService
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(systemService *service.SystemService) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

// Health checks the health of the system and database connectivity
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.systemService.CheckHealth(); err != nil {
		response.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Database: "disconnected",
			Error:    err.Error(),
		})
		return
	}

	response.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:   "healthy",
		Database: "connected",
	})
}

// VersionResponse represents the version check response
type VersionResponse struct {
	Version string `json:"version"`
}

// Version handles GET requests to retrieve the application version.
//
// Endpoint: GET /api/system/version
// Response: 200 OK with VersionResponse
func (h *SystemHandler) Version(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, VersionResponse{
		Version: h.systemService.CheckVersion(),
	})
}

// SetQuoteToken handles PUT requests to store the quote-provider API token.
// The token is encrypted at rest and picked up on the next server start.
//
// Endpoint: PUT /api/system/settings/quote-token
// Request Body: SetQuoteTokenRequest (token)
// Response: 204 No Content
// Error: 400 Bad Request if the body is invalid or the token empty
// Error: 409 Conflict if no encryption key is configured
// Error: 500 Internal Server Error if storage fails
func (h *SystemHandler) SetQuoteToken(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SetQuoteTokenRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "token must not be empty")
		return
	}

	if err := h.systemService.SetQuoteToken(r.Context(), req.Token); err != nil {
		if errors.Is(err, apperrors.ErrTokenStorageDisabled) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrTokenStorageDisabled.Error(), "")
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to store quote token", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

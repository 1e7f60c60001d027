package handlers

import (
	"net/http"

	"github.com/tradingdiary/backend/internal/api/response"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/service"
	"github.com/tradingdiary/backend/internal/validation"
)

// StatisticsHandler handles HTTP requests for the margin statistics view.
type StatisticsHandler struct {
	statisticsService *service.StatisticsService
}

// NewStatisticsHandler creates a new StatisticsHandler with the provided service dependency.
func NewStatisticsHandler(statisticsService *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{
		statisticsService: statisticsService,
	}
}

// Statistics handles GET requests to retrieve the margin statistics:
// exposure, accrued and daily interest, realized results, risk measures and
// monthly rollups, optionally scoped to a portfolio.
//
// Endpoint: GET /api/statistics?portfolio_id=...
// Response: 200 OK with MarginStatistics
// Error: 400 Bad Request if portfolio_id is not a valid UUID
// Error: 500 Internal Server Error if computation fails
func (h *StatisticsHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	portfolioID := r.URL.Query().Get("portfolio_id")
	if portfolioID != "" {
		if err := validation.ValidateUUID(portfolioID); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid portfolio_id", err.Error())
			return
		}
	}

	stats, err := h.statisticsService.GetStatistics(portfolioID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveStatistics.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}

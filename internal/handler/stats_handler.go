package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/response"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/service"
)

// StatsHandler serves the dashboard overview counters.
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Overview godoc
// GET /api/v1/stats
func (h *StatsHandler) Overview(c *gin.Context) {
	stats, err := h.statsService.Overview(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

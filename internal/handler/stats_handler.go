package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/bikeshare-insights-go/internal/analysis"
	"github.com/jengzang/bikeshare-insights-go/internal/service"
	"github.com/jengzang/bikeshare-insights-go/pkg/response"
)

// StatsHandler handles HTTP requests for aggregate queries
type StatsHandler struct {
	analytics *service.AnalyticsService
	topN      int
}

// NewStatsHandler creates a new stats handler; topN is the default ranking size
func NewStatsHandler(analytics *service.AnalyticsService, topN int) *StatsHandler {
	return &StatsHandler{
		analytics: analytics,
		topN:      topN,
	}
}

// ListQueries handles GET /api/v1/stats
func (h *StatsHandler) ListQueries(c *gin.Context) {
	response.Success(c, analysis.QueryTypes())
}

// Query handles GET /api/v1/stats/:query
func (h *StatsHandler) Query(c *gin.Context) {
	qt, err := analysis.ParseQueryType(c.Param("query"))
	if err != nil {
		fail(c, err)
		return
	}

	params, err := parseQueryParams(c, h.topN)
	if err != nil {
		fail(c, err)
		return
	}

	result, err := h.analytics.QueryCurrent(c.Request.Context(), qt, params)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, result)
}

package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/bikeshare-insights-go/internal/analysis"
	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// defaultBins is the histogram bin count when none is given
const defaultBins = 10

// queryInt reads an integer query parameter, falling back to def when absent
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidParam("parseQuery", name, raw, "not an integer")
	}
	return v, nil
}

func queryDay(c *gin.Context) (models.DayFilter, error) {
	raw := c.Query("day")
	day, err := models.ParseDayFilter(raw)
	if err != nil {
		return models.AllDays, apperr.InvalidParam("parseQuery", "day", raw, err.Error())
	}
	return day, nil
}

// parseQueryParams reads n, day, hour, from, to and bins. Range checks are
// left to the analyzers.
func parseQueryParams(c *gin.Context, defaultN int) (models.QueryParams, error) {
	var (
		p   models.QueryParams
		err error
	)
	if p.N, err = queryInt(c, "n", defaultN); err != nil {
		return p, err
	}
	if p.Day, err = queryDay(c); err != nil {
		return p, err
	}
	if p.Hour, err = queryInt(c, "hour", 0); err != nil {
		return p, err
	}
	if p.FromHour, err = queryInt(c, "from", analysis.MorningFromHour); err != nil {
		return p, err
	}
	if p.ToHour, err = queryInt(c, "to", analysis.MorningToHour); err != nil {
		return p, err
	}
	if p.Bins, err = queryInt(c, "bins", defaultBins); err != nil {
		return p, err
	}
	return p, nil
}

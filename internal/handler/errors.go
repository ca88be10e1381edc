package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/bikeshare-insights-go/internal/service"
	"github.com/jengzang/bikeshare-insights-go/internal/timelapse"
	"github.com/jengzang/bikeshare-insights-go/pkg/response"
)

// fail sends err, reporting state conflicts as 409
func fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNoDataset) || errors.Is(err, timelapse.ErrNotPaused) {
		err = fmt.Errorf("%w: %w", response.ErrConflict, err)
	}
	response.FromError(c, err)
}

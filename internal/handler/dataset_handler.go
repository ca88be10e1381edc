package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/bikeshare-insights-go/internal/ingest"
	"github.com/jengzang/bikeshare-insights-go/internal/service"
	"github.com/jengzang/bikeshare-insights-go/pkg/response"
)

// maxUploadBytes caps the size of an uploaded CSV
const maxUploadBytes = 512 << 20

// DatasetHandler handles HTTP requests for loading trip data
type DatasetHandler struct {
	analytics *service.AnalyticsService
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(analytics *service.AnalyticsService) *DatasetHandler {
	return &DatasetHandler{analytics: analytics}
}

// Upload handles POST /api/v1/datasets
// The CSV is either the raw request body or a multipart "file" field.
func (h *DatasetHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			response.BadRequest(c, "missing file field")
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		defer f.Close()
		body = f
	}

	records, err := ingest.ReadTrips(body)
	if err != nil {
		fail(c, err)
		return
	}

	set, err := h.analytics.Load(c.Request.Context(), records)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, set)
}

// Current handles GET /api/v1/datasets/current
func (h *DatasetHandler) Current(c *gin.Context) {
	set, err := h.analytics.Current()
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, set)
}

// CacheStats handles GET /api/v1/cache
func (h *DatasetHandler) CacheStats(c *gin.Context) {
	response.Success(c, h.analytics.CacheStats())
}

package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/bikeshare-insights-go/internal/service"
	"github.com/jengzang/bikeshare-insights-go/internal/timelapse"
	"github.com/jengzang/bikeshare-insights-go/pkg/response"
)

// TimelapseHandler handles HTTP requests for the hour-by-hour animation
type TimelapseHandler struct {
	timelapse  *service.TimelapseService
	frameDelay time.Duration
	hourMin    int
	logger     *slog.Logger
}

// NewTimelapseHandler creates a new timelapse handler. frameDelay paces the
// websocket stream; hourMin is the default starting hour.
func NewTimelapseHandler(svc *service.TimelapseService, frameDelay time.Duration, hourMin int, logger *slog.Logger) *TimelapseHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TimelapseHandler{
		timelapse:  svc,
		frameDelay: frameDelay,
		hourMin:    hourMin,
		logger:     logger,
	}
}

// StepResponse is the result of a single step
type StepResponse struct {
	Produced bool             `json:"produced"`
	Frame    *service.Frame   `json:"frame,omitempty"`
	Status   timelapse.Status `json:"status"`
}

// Start handles POST /api/v1/timelapse/start?from=&day=
// The frame for the starting hour is returned with the status.
func (h *TimelapseHandler) Start(c *gin.Context) {
	if err := h.start(c); err != nil {
		fail(c, err)
		return
	}

	frame, ok, err := h.timelapse.Current(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	h.stepResult(c, frame, ok)
}

func (h *TimelapseHandler) start(c *gin.Context) error {
	from, err := queryInt(c, "from", h.hourMin)
	if err != nil {
		return err
	}
	day, err := queryDay(c)
	if err != nil {
		return err
	}
	return h.timelapse.Start(from, day)
}

// Step handles POST /api/v1/timelapse/step
func (h *TimelapseHandler) Step(c *gin.Context) {
	frame, ok, err := h.timelapse.Step(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	h.stepResult(c, frame, ok)
}

func (h *TimelapseHandler) stepResult(c *gin.Context, frame service.Frame, ok bool) {
	resp := StepResponse{Produced: ok, Status: h.timelapse.Status()}
	if ok {
		resp.Frame = &frame
	}
	response.Success(c, resp)
}

// Pause handles POST /api/v1/timelapse/pause
func (h *TimelapseHandler) Pause(c *gin.Context) {
	h.timelapse.Pause()
	response.Success(c, h.timelapse.Status())
}

// Resume handles POST /api/v1/timelapse/resume
func (h *TimelapseHandler) Resume(c *gin.Context) {
	if err := h.timelapse.Resume(); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, h.timelapse.Status())
}

// Cancel handles POST /api/v1/timelapse/cancel
func (h *TimelapseHandler) Cancel(c *gin.Context) {
	h.timelapse.Cancel()
	response.Success(c, h.timelapse.Status())
}

// Status handles GET /api/v1/timelapse
func (h *TimelapseHandler) Status(c *gin.Context) {
	response.Success(c, h.timelapse.Status())
}

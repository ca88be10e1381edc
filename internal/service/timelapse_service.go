package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/analysis"
	"github.com/jengzang/bikeshare-insights-go/internal/logging"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
	"github.com/jengzang/bikeshare-insights-go/internal/publisher"
	"github.com/jengzang/bikeshare-insights-go/internal/timelapse"
)

// Frame is one timelapse snapshot: trip start locations for one hour
type Frame = timelapse.Snapshot[[]models.LocationCount]

// FrameSink receives every produced frame, e.g. a NATS publisher
type FrameSink interface {
	PublishFrame(msg publisher.FrameMessage) error
}

// FrameMetrics counts produced frames
type FrameMetrics interface {
	FrameEmitted()
}

// TimelapseService drives a timelapse over the dataset that was current when
// the run started
type TimelapseService struct {
	analytics *AnalyticsService
	ctrl      *timelapse.Controller[[]models.LocationCount]
	sink      FrameSink
	metrics   FrameMetrics
	logger    *slog.Logger

	mu  sync.RWMutex
	set *models.TripSet
}

// NewTimelapseService creates a timelapse service limited to [hourMin, hourMax].
// sink and metrics may be nil.
func NewTimelapseService(analytics *AnalyticsService, hourMin, hourMax int, sink FrameSink, metrics FrameMetrics, logger *slog.Logger) (*TimelapseService, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &TimelapseService{
		analytics: analytics,
		sink:      sink,
		metrics:   metrics,
		logger:    logger,
	}

	ctrl, err := timelapse.NewController(s.locationFrame, timelapse.WithHourRange(hourMin, hourMax))
	if err != nil {
		return nil, err
	}
	s.ctrl = ctrl
	return s, nil
}

func (s *TimelapseService) locationFrame(ctx context.Context, hour int, day models.DayFilter) ([]models.LocationCount, error) {
	s.mu.RLock()
	set := s.set
	s.mu.RUnlock()

	result, err := s.analytics.Query(ctx, set, analysis.QueryLocationActivity, models.QueryParams{Hour: hour, Day: day})
	if err != nil {
		return nil, err
	}
	locations, ok := result.([]models.LocationCount)
	if !ok {
		return nil, fmt.Errorf("unexpected location activity result %T", result)
	}
	return locations, nil
}

// Start begins a run over the current dataset
func (s *TimelapseService) Start(fromHour int, day models.DayFilter) error {
	set, err := s.analytics.Current()
	if err != nil {
		return err
	}
	// bind the dataset before the controller starts playing so no frame of
	// this run is computed over another set
	s.mu.Lock()
	prev := s.set
	s.set = set
	s.mu.Unlock()

	if err := s.ctrl.Start(fromHour, day); err != nil {
		s.mu.Lock()
		if s.set == set {
			s.set = prev
		}
		s.mu.Unlock()
		return err
	}

	logging.LogOperation(s.logger, "timelapse_started",
		slog.Int("from_hour", fromHour),
		slog.String("day", day.String()),
		slog.Uint64("version", set.Version))
	return nil
}

// Current produces the frame for the hour the run is positioned at
func (s *TimelapseService) Current(ctx context.Context) (Frame, bool, error) {
	snap, ok, err := s.ctrl.Current(ctx)
	if ok {
		s.emit(snap)
	}
	return snap, ok, err
}

// Step advances the run and produces the next frame
func (s *TimelapseService) Step(ctx context.Context) (Frame, bool, error) {
	snap, ok, err := s.ctrl.Step(ctx)
	if ok {
		s.emit(snap)
	}
	return snap, ok, err
}

func (s *TimelapseService) emit(snap Frame) {
	if s.metrics != nil {
		s.metrics.FrameEmitted()
	}
	if s.sink == nil {
		return
	}

	s.mu.RLock()
	var version uint64
	if s.set != nil {
		version = s.set.Version
	}
	s.mu.RUnlock()

	err := s.sink.PublishFrame(publisher.FrameMessage{
		DatasetVersion: version,
		Day:            snap.Day,
		Hour:           snap.Hour,
		Locations:      snap.Frame,
		Timestamp:      time.Now(),
	})
	if err != nil {
		// Publishing is best effort; the frame still reaches the caller
		logging.LogError(s.logger, "frame_publish_failed", err, slog.Int("hour", snap.Hour))
	}
}

// Pause stops the run, keeping its position
func (s *TimelapseService) Pause() { s.ctrl.Pause() }

// Resume continues a paused run
func (s *TimelapseService) Resume() error { return s.ctrl.Resume() }

// Cancel stops the run and discards its position
func (s *TimelapseService) Cancel() { s.ctrl.Cancel() }

// Status returns the controller status
func (s *TimelapseService) Status() timelapse.Status { return s.ctrl.Status() }

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/analysis"
	"github.com/jengzang/bikeshare-insights-go/internal/cache"
	"github.com/jengzang/bikeshare-insights-go/internal/logging"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
	"github.com/jengzang/bikeshare-insights-go/internal/pipeline"
)

// ErrNoDataset is returned by queries issued before any dataset was loaded
var ErrNoDataset = errors.New("no dataset loaded")

// AnalyticsMetrics receives dataset and query events
type AnalyticsMetrics interface {
	DatasetLoaded(set *models.TripSet)
	ObserveQuery(query string, d time.Duration)
}

// AnalyticsService owns the current trip set and answers aggregate queries
// through the memoization cache
type AnalyticsService struct {
	cache   *cache.Cache
	opts    pipeline.Options
	logger  *slog.Logger
	metrics AnalyticsMetrics

	mu      sync.RWMutex
	current *models.TripSet
}

// NewAnalyticsService creates a new analytics service. metrics may be nil.
func NewAnalyticsService(c *cache.Cache, opts pipeline.Options, logger *slog.Logger, metrics AnalyticsMetrics) *AnalyticsService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AnalyticsService{
		cache:   c,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Load validates and enriches raw records and makes the result the current
// dataset. Loading input identical to an earlier load reuses its trip set.
func (s *AnalyticsService) Load(ctx context.Context, records []models.RawTrip) (*models.TripSet, error) {
	ctx = logging.WithLogger(ctx, s.logger)
	fp := cache.Fingerprint{Stage: cache.StageDerive, DatasetVersion: pipeline.Digest(records, s.opts)}

	set, err := cache.GetOrCompute(s.cache, fp, func() (*models.TripSet, error) {
		return pipeline.LoadAndPrepare(ctx, records, s.opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	s.mu.Lock()
	s.current = set
	s.mu.Unlock()

	dropped := s.cache.RetainVersion(set.Version)
	if s.metrics != nil {
		s.metrics.DatasetLoaded(set)
	}
	logging.LogOperation(s.logger, "dataset_loaded",
		slog.Uint64("version", set.Version),
		slog.Int("kept_rows", set.KeptRows),
		slog.Int("dropped_rows", set.DroppedRows),
		slog.Int("evicted_entries", dropped))

	return set, nil
}

// Current returns the current dataset
func (s *AnalyticsService) Current() (*models.TripSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoDataset
	}
	return s.current, nil
}

// Query runs an aggregate query over set. Repeating a query with the same
// dataset, query type and params returns the cached result.
func (s *AnalyticsService) Query(ctx context.Context, set *models.TripSet, qt analysis.QueryType, params models.QueryParams) (any, error) {
	if set == nil {
		return nil, ErrNoDataset
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	fp := cache.Fingerprint{
		Stage:          cache.StageQuery,
		DatasetVersion: set.Version,
		Params:         string(qt) + "?" + params.Key(),
	}
	result, err := cache.GetOrCompute(s.cache, fp, func() (any, error) {
		return analysis.Run(qt, set.Trips, params)
	})
	if s.metrics != nil {
		s.metrics.ObserveQuery(string(qt), time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// QueryCurrent runs an aggregate query over the current dataset
func (s *AnalyticsService) QueryCurrent(ctx context.Context, qt analysis.QueryType, params models.QueryParams) (any, error) {
	set, err := s.Current()
	if err != nil {
		return nil, err
	}
	return s.Query(ctx, set, qt, params)
}

// CacheStats returns memoization cache activity
func (s *AnalyticsService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

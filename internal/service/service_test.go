package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/bikeshare-insights-go/internal/analysis"
	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/cache"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
	"github.com/jengzang/bikeshare-insights-go/internal/pipeline"
	"github.com/jengzang/bikeshare-insights-go/internal/publisher"
)

func ptr(v float64) *float64 { return &v }

// rawTrip starts on Monday 2024-10-07 at the given hour
func rawTrip(id, start, end string, hour int, lat float64) models.RawTrip {
	return models.RawTrip{
		RideID:           id,
		StartedAt:        fmt.Sprintf("2024-10-07 %02d:00:00", hour),
		EndedAt:          fmt.Sprintf("2024-10-07 %02d:20:00", hour),
		StartStationName: start,
		EndStationName:   end,
		StartLat:         ptr(lat),
		StartLng:         ptr(-122.41),
		EndLat:           ptr(37.78),
		EndLng:           ptr(-122.42),
		MemberCasual:     "member",
	}
}

func sampleRecords() []models.RawTrip {
	return []models.RawTrip{
		rawTrip("1", "A", "B", 6, 37.77),
		rawTrip("2", "A", "B", 7, 37.77),
		rawTrip("3", "B", "A", 7, 37.79),
		rawTrip("4", "A", "A", 8, 37.77),
		{RideID: "bad", StartedAt: "2024-10-07 08:00:00", EndedAt: "2024-10-07 08:10:00"},
	}
}

func newAnalytics(t *testing.T) *AnalyticsService {
	t.Helper()
	return NewAnalyticsService(cache.New(), pipeline.Options{Location: time.UTC}, nil, nil)
}

func TestLoad(t *testing.T) {
	svc := newAnalytics(t)
	ctx := context.Background()

	_, err := svc.Current()
	assert.ErrorIs(t, err, ErrNoDataset)

	set, err := svc.Load(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 5, set.InputRows)
	assert.Equal(t, 4, set.KeptRows)
	assert.Equal(t, 1, set.DroppedRows)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, set, current)

	// Identical input reuses the derived set
	again, err := svc.Load(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Same(t, set, again)
	assert.Equal(t, int64(1), svc.CacheStats().Computations)
}

func TestLoadRejectsUnusableInput(t *testing.T) {
	svc := newAnalytics(t)

	_, err := svc.Load(context.Background(), nil)
	assert.True(t, apperr.IsData(err))
	assert.ErrorIs(t, err, pipeline.ErrNoRecords)

	_, err = svc.Load(context.Background(), []models.RawTrip{{RideID: "x"}})
	assert.True(t, apperr.IsData(err))

	_, err = svc.Current()
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestQueryIsMemoized(t *testing.T) {
	svc := newAnalytics(t)
	ctx := context.Background()
	set, err := svc.Load(ctx, sampleRecords())
	require.NoError(t, err)

	params := models.QueryParams{N: 2}
	first, err := svc.Query(ctx, set, analysis.QueryTopStartStations, params)
	require.NoError(t, err)
	computations := svc.CacheStats().Computations

	second, err := svc.Query(ctx, set, analysis.QueryTopStartStations, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, computations, svc.CacheStats().Computations)
	assert.Equal(t, []models.RankedCount{{Key: "A", Count: 3}, {Key: "B", Count: 1}}, second)

	// Different params compute again
	_, err = svc.Query(ctx, set, analysis.QueryTopStartStations, models.QueryParams{N: 1})
	require.NoError(t, err)
	assert.Equal(t, computations+1, svc.CacheStats().Computations)
}

func TestConcurrentQueriesComputeOnce(t *testing.T) {
	svc := newAnalytics(t)
	ctx := context.Background()
	set, err := svc.Load(ctx, sampleRecords())
	require.NoError(t, err)
	before := svc.CacheStats().Computations

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Query(ctx, set, analysis.QueryStationImbalance, models.QueryParams{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, before+1, svc.CacheStats().Computations)
}

func TestQueryErrors(t *testing.T) {
	svc := newAnalytics(t)
	ctx := context.Background()

	_, err := svc.QueryCurrent(ctx, analysis.QuerySummary, models.QueryParams{})
	assert.ErrorIs(t, err, ErrNoDataset)

	set, err := svc.Load(ctx, sampleRecords())
	require.NoError(t, err)

	_, err = svc.Query(ctx, set, analysis.QueryTopEndStations, models.QueryParams{N: 0})
	assert.True(t, apperr.IsInvalidParam(err))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = svc.Query(cancelled, set, analysis.QuerySummary, models.QueryParams{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadingNewDatasetEvictsOldEntries(t *testing.T) {
	svc := newAnalytics(t)
	ctx := context.Background()

	first, err := svc.Load(ctx, sampleRecords())
	require.NoError(t, err)
	_, err = svc.Query(ctx, first, analysis.QuerySummary, models.QueryParams{})
	require.NoError(t, err)

	second, err := svc.Load(ctx, sampleRecords()[:2])
	require.NoError(t, err)
	assert.NotEqual(t, first.Version, second.Version)
	assert.Equal(t, 1, svc.CacheStats().Entries)

	summary, err := svc.QueryCurrent(ctx, analysis.QuerySummary, models.QueryParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.(models.SummaryMetrics).TotalTrips)
}

type recordingSink struct {
	mu   sync.Mutex
	msgs []publisher.FrameMessage
}

func (s *recordingSink) PublishFrame(msg publisher.FrameMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

type frameCounter struct{ n int }

func (f *frameCounter) FrameEmitted() { f.n++ }

func TestTimelapse(t *testing.T) {
	analytics := newAnalytics(t)
	sink := &recordingSink{}
	counter := &frameCounter{}
	svc, err := NewTimelapseService(analytics, 0, 23, sink, counter, nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Start(5, models.AllDays), ErrNoDataset)

	set, err := analytics.Load(ctx, sampleRecords())
	require.NoError(t, err)
	require.NoError(t, svc.Start(5, models.AllDays))

	var hours []int
	for i := 0; i < 3; i++ {
		frame, ok, err := svc.Step(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		hours = append(hours, frame.Hour)

		want, err := analysis.LocationActivity(set.Trips, frame.Hour, models.AllDays)
		require.NoError(t, err)
		assert.Equal(t, want, frame.Frame)
	}
	assert.Equal(t, []int{6, 7, 8}, hours)
	assert.Equal(t, 3, counter.n)

	require.Len(t, sink.msgs, 3)
	assert.Equal(t, set.Version, sink.msgs[1].DatasetVersion)
	assert.Equal(t, 7, sink.msgs[1].Hour)
	assert.Len(t, sink.msgs[1].Locations, 2)

	svc.Pause()
	_, ok, err := svc.Step(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, svc.Status().Resumable)

	require.NoError(t, svc.Resume())
	frame, ok, err := svc.Step(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9, frame.Hour)
	assert.Empty(t, frame.Frame)

	svc.Cancel()
	assert.Error(t, svc.Resume())
}

func TestTimelapseRevisitedHourHitsCache(t *testing.T) {
	analytics := newAnalytics(t)
	svc, err := NewTimelapseService(analytics, 0, 23, nil, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = analytics.Load(ctx, sampleRecords())
	require.NoError(t, err)

	require.NoError(t, svc.Start(5, models.AllDays))
	_, _, err = svc.Step(ctx)
	require.NoError(t, err)
	computations := analytics.CacheStats().Computations

	require.NoError(t, svc.Start(5, models.AllDays))
	frame, ok, err := svc.Step(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 6, frame.Hour)
	assert.Equal(t, computations, analytics.CacheStats().Computations)
}

func TestTimelapseCurrentFrame(t *testing.T) {
	analytics := newAnalytics(t)
	svc, err := NewTimelapseService(analytics, 6, 8, nil, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = analytics.Load(ctx, sampleRecords())
	require.NoError(t, err)

	assert.True(t, apperr.IsInvalidParam(svc.Start(5, models.AllDays)))
	require.NoError(t, svc.Start(7, models.OnDay(time.Monday)))

	frame, ok, err := svc.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, frame.Hour)
	assert.Len(t, frame.Frame, 2)

	frame, ok, err = svc.Step(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8, frame.Hour)

	_, ok, err = svc.Step(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "idle", string(svc.Status().State))
}

func TestTimelapseStepDuringStartSeesDataset(t *testing.T) {
	analytics := newAnalytics(t)
	ctx := context.Background()
	_, err := analytics.Load(ctx, sampleRecords())
	require.NoError(t, err)

	for range 200 {
		svc, err := NewTimelapseService(analytics, 0, 23, nil, nil, nil)
		require.NoError(t, err)

		stop := make(chan struct{})
		errs := make(chan error, 1)
		go func() {
			defer close(errs)
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, _, err := svc.Step(ctx); err != nil {
					errs <- err
					return
				}
			}
		}()

		require.NoError(t, svc.Start(0, models.AllDays))
		close(stop)
		require.NoError(t, <-errs)
	}
}

func TestTimelapseFailedRestartKeepsRunDataset(t *testing.T) {
	analytics := newAnalytics(t)
	svc, err := NewTimelapseService(analytics, 0, 23, nil, nil, nil)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := analytics.Load(ctx, sampleRecords())
	require.NoError(t, err)
	require.NoError(t, svc.Start(5, models.AllDays))

	_, err = analytics.Load(ctx, sampleRecords()[2:4])
	require.NoError(t, err)
	assert.True(t, apperr.IsInvalidParam(svc.Start(24, models.AllDays)))

	frame, ok, err := svc.Step(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	want, err := analysis.LocationActivity(first.Trips, 6, models.AllDays)
	require.NoError(t, err)
	assert.Equal(t, want, frame.Frame)
}

package timelapse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// hourFrame echoes the requested hour and counts invocations
type hourFrame struct {
	calls []int
}

func (h *hourFrame) frame(_ context.Context, hour int, _ models.DayFilter) (int, error) {
	h.calls = append(h.calls, hour)
	return hour * 10, nil
}

func newTestController(t *testing.T, opts ...Option) (*Controller[int], *hourFrame) {
	t.Helper()
	h := &hourFrame{}
	c, err := NewController(h.frame, opts...)
	require.NoError(t, err)
	return c, h
}

func TestStepSequence(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.Start(5, models.AllDays))
	assert.Equal(t, Playing, c.State())

	var hours []int
	for i := 0; i < 3; i++ {
		snap, ok, err := c.Step(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, snap.Hour*10, snap.Frame)
		hours = append(hours, snap.Hour)
	}
	assert.Equal(t, []int{6, 7, 8}, hours)
	assert.Equal(t, 8, c.Hour())
}

func TestPauseStopsFurtherFrames(t *testing.T) {
	c, h := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.Start(5, models.AllDays))
	_, ok, err := c.Step(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	c.Pause()
	assert.Equal(t, Idle, c.State())

	_, ok, err = c.Step(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []int{6}, h.calls)
}

func TestStepWhileIdle(t *testing.T) {
	c, h := newTestController(t)

	_, ok, err := c.Step(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, h.calls)
}

func TestRunEndsAtLastHour(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.Start(21, models.OnDay(time.Sunday)))

	var hours []int
	for {
		snap, ok, err := c.Step(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		assert.Equal(t, models.OnDay(time.Sunday), snap.Day)
		hours = append(hours, snap.Hour)
	}
	assert.Equal(t, []int{22, 23}, hours)
	assert.Equal(t, Idle, c.State())
	assert.ErrorIs(t, c.Resume(), ErrNotPaused)
}

func TestHourRange(t *testing.T) {
	c, _ := newTestController(t, WithHourRange(6, 9))
	ctx := context.Background()

	err := c.Start(5, models.AllDays)
	assert.True(t, apperr.IsInvalidParam(err))
	err = c.Start(10, models.AllDays)
	assert.True(t, apperr.IsInvalidParam(err))

	require.NoError(t, c.Start(7, models.AllDays))
	var hours []int
	for {
		snap, ok, err := c.Step(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		hours = append(hours, snap.Hour)
	}
	assert.Equal(t, []int{8, 9}, hours)
}

func TestNewControllerRejectsBadRange(t *testing.T) {
	h := &hourFrame{}
	_, err := NewController(h.frame, WithHourRange(-1, 5))
	assert.True(t, apperr.IsInvalidParam(err))
	_, err = NewController(h.frame, WithHourRange(9, 8))
	assert.True(t, apperr.IsInvalidParam(err))
	_, err = NewController(h.frame, WithHourRange(0, 24))
	assert.True(t, apperr.IsInvalidParam(err))
}

func TestStartRejectsInvalidHour(t *testing.T) {
	c, _ := newTestController(t)
	for _, hour := range []int{-1, 24, 100} {
		err := c.Start(hour, models.AllDays)
		assert.True(t, apperr.IsInvalidParam(err), "hour=%d", hour)
	}
	assert.Equal(t, Idle, c.State())
}

func TestPauseAndCancelIdempotent(t *testing.T) {
	c, _ := newTestController(t)

	assert.NotPanics(t, func() {
		c.Pause()
		c.Pause()
		c.Cancel()
		c.Cancel()
	})
	assert.Equal(t, Idle, c.State())
}

func TestResume(t *testing.T) {
	c, _ := newTestController(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Resume(), ErrNotPaused)

	require.NoError(t, c.Start(10, models.AllDays))
	_, _, err := c.Step(ctx)
	require.NoError(t, err)
	c.Pause()

	status := c.Status()
	assert.True(t, status.Resumable)
	assert.Equal(t, 11, status.Hour)

	require.NoError(t, c.Resume())
	assert.Equal(t, Playing, c.State())
	snap, ok, err := c.Step(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12, snap.Hour)

	// Resume while playing is a no-op
	assert.NoError(t, c.Resume())

	c.Cancel()
	assert.ErrorIs(t, c.Resume(), ErrNotPaused)
	assert.Equal(t, 0, c.Hour())
}

func TestCurrent(t *testing.T) {
	c, h := newTestController(t)
	ctx := context.Background()

	_, ok, err := c.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Start(4, models.AllDays))
	snap, ok, err := c.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, snap.Hour)
	assert.Equal(t, 4, c.Hour())

	snap, _, err = c.Step(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Hour)
	assert.Equal(t, []int{4, 5}, h.calls)
}

func TestPauseDuringComputationDiscardsFrame(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	c, err := NewController(func(_ context.Context, hour int, _ models.DayFilter) (int, error) {
		close(entered)
		<-release
		return hour, nil
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(0, models.AllDays))

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, ok, err := c.Step(context.Background())
		done <- result{ok, err}
	}()

	<-entered
	c.Pause()
	close(release)

	r := <-done
	assert.NoError(t, r.err)
	assert.False(t, r.ok)
	assert.Equal(t, 0, c.Hour())
}

func TestFrameErrorKeepsPosition(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	c, err := NewController(func(_ context.Context, hour int, _ models.DayFilter) (int, error) {
		if fail {
			return 0, boom
		}
		return hour, nil
	})
	require.NoError(t, err)
	require.NoError(t, c.Start(3, models.AllDays))

	_, ok, err := c.Step(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.Equal(t, 3, c.Hour())
	assert.Equal(t, Playing, c.State())

	fail = false
	snap, ok, err := c.Step(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, snap.Hour)
}

func TestStepHonorsContext(t *testing.T) {
	c, h := newTestController(t)
	require.NoError(t, c.Start(0, models.AllDays))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := c.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
	assert.Empty(t, h.calls)
}

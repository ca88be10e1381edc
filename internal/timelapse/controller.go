package timelapse

import (
	"context"
	"errors"
	"sync"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// State is the playback state of a Controller
type State string

// State constants
const (
	Idle    State = "idle"
	Playing State = "playing"
)

// ErrNotPaused is returned by Resume when there is no paused run to continue
var ErrNotPaused = errors.New("timelapse: no paused run to resume")

// FrameFunc computes the frame payload for one hour of one day filter
type FrameFunc[T any] func(ctx context.Context, hour int, day models.DayFilter) (T, error)

// Snapshot is one frame of a timelapse run
type Snapshot[T any] struct {
	Hour  int              `json:"hour"`
	Day   models.DayFilter `json:"day"`
	Frame T                `json:"frame"`
}

// Status describes a controller at a point in time
type Status struct {
	State     State            `json:"state"`
	Hour      int              `json:"hour"`
	Day       models.DayFilter `json:"day"`
	Resumable bool             `json:"resumable"`
	MinHour   int              `json:"min_hour"`
	MaxHour   int              `json:"max_hour"`
}

// Controller steps a run through the hours of the day one frame at a time.
// Pacing belongs to the caller: the controller only produces the next frame
// when Step is called. Pause and Cancel take effect before the next frame is
// committed, including a frame whose computation is already under way.
type Controller[T any] struct {
	frame   FrameFunc[T]
	minHour int
	maxHour int

	stepMu sync.Mutex // Serializes Step and Current

	mu     sync.Mutex
	state  State
	hour   int
	day    models.DayFilter
	paused bool
	gen    uint64 // Bumped on every transition; a frame computed under an older gen is discarded
}

// Option configures a Controller
type Option func(*options)

type options struct {
	minHour, maxHour int
}

// WithHourRange bounds runs to the inclusive hour range [minHour, maxHour]
func WithHourRange(minHour, maxHour int) Option {
	return func(o *options) {
		o.minHour, o.maxHour = minHour, maxHour
	}
}

// NewController creates an idle controller producing frames with frame
func NewController[T any](frame FrameFunc[T], opts ...Option) (*Controller[T], error) {
	o := options{minHour: 0, maxHour: 23}
	for _, opt := range opts {
		opt(&o)
	}
	if o.minHour < 0 || o.minHour > 23 {
		return nil, apperr.InvalidParam("newController", "minHour", o.minHour, "must be within [0,23]")
	}
	if o.maxHour < o.minHour || o.maxHour > 23 {
		return nil, apperr.InvalidParam("newController", "maxHour", o.maxHour, "must be within [minHour,23]")
	}
	if frame == nil {
		return nil, errors.New("timelapse: nil frame function")
	}

	return &Controller[T]{
		frame:   frame,
		minHour: o.minHour,
		maxHour: o.maxHour,
		state:   Idle,
		hour:    o.minHour,
	}, nil
}

// Start begins a run positioned at fromHour. The first Step produces the
// frame for fromHour+1; use Current for the frame at fromHour itself.
// Starting while playing restarts the run.
func (c *Controller[T]) Start(fromHour int, day models.DayFilter) error {
	if fromHour < 0 || fromHour > 23 {
		return apperr.InvalidParam("start", "fromHour", fromHour, "must be within [0,23]")
	}
	if fromHour < c.minHour || fromHour > c.maxHour {
		return apperr.InvalidParam("start", "fromHour", fromHour, "outside the configured hour range")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Playing
	c.hour = fromHour
	c.day = day
	c.paused = false
	c.gen++
	return nil
}

// Step advances the run by one hour and returns its snapshot. It returns
// false with no error when nothing is produced: the controller is idle, the
// run just finished, or a pause or cancel arrived while the frame was being
// computed. A failed frame leaves the position unchanged.
func (c *Controller[T]) Step(ctx context.Context) (Snapshot[T], bool, error) {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	var zero Snapshot[T]

	c.mu.Lock()
	if c.state != Playing {
		c.mu.Unlock()
		return zero, false, nil
	}
	next := c.hour + 1
	if next > c.maxHour {
		c.state = Idle
		c.paused = false
		c.gen++
		c.mu.Unlock()
		return zero, false, nil
	}
	gen, day := c.gen, c.day
	c.mu.Unlock()

	return c.produce(ctx, gen, next, day, true)
}

// Current returns the snapshot for the hour the run is positioned at without
// advancing. It produces nothing while idle.
func (c *Controller[T]) Current(ctx context.Context) (Snapshot[T], bool, error) {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.Lock()
	if c.state != Playing {
		c.mu.Unlock()
		return Snapshot[T]{}, false, nil
	}
	gen, hour, day := c.gen, c.hour, c.day
	c.mu.Unlock()

	return c.produce(ctx, gen, hour, day, false)
}

func (c *Controller[T]) produce(ctx context.Context, gen uint64, hour int, day models.DayFilter, advance bool) (Snapshot[T], bool, error) {
	var zero Snapshot[T]
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	frame, err := c.frame(ctx, hour, day)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.state != Playing {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	if advance {
		c.hour = hour
	}
	return Snapshot[T]{Hour: hour, Day: day, Frame: frame}, true, nil
}

// Pause stops the run and keeps its position for Resume. Idempotent.
func (c *Controller[T]) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Playing {
		return
	}
	c.state = Idle
	c.paused = true
	c.gen++
}

// Resume continues a paused run from where it stopped
func (c *Controller[T]) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Playing {
		return nil
	}
	if !c.paused {
		return ErrNotPaused
	}
	c.state = Playing
	c.paused = false
	c.gen++
	return nil
}

// Cancel stops the run and discards its position. Idempotent.
func (c *Controller[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.paused = false
	c.hour = c.minHour
	c.day = models.AllDays
	c.gen++
}

// State returns the current playback state
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Hour returns the hour of the last produced frame, or the start hour if no
// frame was produced yet
func (c *Controller[T]) Hour() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hour
}

// Status returns the full controller status
func (c *Controller[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:     c.state,
		Hour:      c.hour,
		Day:       c.day,
		Resumable: c.paused,
		MinHour:   c.minHour,
		MaxHour:   c.maxHour,
	}
}

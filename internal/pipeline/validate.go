package pipeline

import (
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/models"
	"github.com/jengzang/bikeshare-insights-go/internal/spatial"
)

// DurationPolicy decides what happens to trips that end before they start
type DurationPolicy string

const (
	// RetainNegativeDurations keeps such trips with a negative duration
	RetainNegativeDurations DurationPolicy = "retain"
	// DropNegativeDurations treats them as row validation failures
	DropNegativeDurations DurationPolicy = "drop"
)

// Options configure validation and derivation. Every field influences the
// derived trips, so every field is folded into the dataset version.
type Options struct {
	Location  *time.Location // Location for zoneless timestamps; nil means UTC
	Durations DurationPolicy // Empty means RetainNegativeDurations
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) durations() DurationPolicy {
	if o.Durations == "" {
		return RetainNegativeDurations
	}
	return o.Durations
}

// Record is a raw trip that passed validation, with its timestamps parsed
type Record struct {
	Raw       models.RawTrip
	StartedAt time.Time
	EndedAt   time.Time
}

// Validate keeps the records whose four coordinates are present and in range
// and whose timestamps parse. Failing rows are dropped silently; relative
// order is preserved.
func Validate(records []models.RawTrip, opts Options) []Record {
	valid := make([]Record, 0, len(records))
	for _, r := range records {
		rec, ok := validateRecord(r, opts)
		if ok {
			valid = append(valid, rec)
		}
	}
	return valid
}

func validateRecord(r models.RawTrip, opts Options) (Record, bool) {
	if r.StartLat == nil || r.StartLng == nil || r.EndLat == nil || r.EndLng == nil {
		return Record{}, false
	}
	if !spatial.ValidLatLng(*r.StartLat, *r.StartLng) || !spatial.ValidLatLng(*r.EndLat, *r.EndLng) {
		return Record{}, false
	}

	loc := opts.location()
	startedAt, err := ParseTimestamp(r.StartedAt, loc)
	if err != nil {
		return Record{}, false
	}
	endedAt, err := ParseTimestamp(r.EndedAt, loc)
	if err != nil {
		return Record{}, false
	}

	if opts.durations() == DropNegativeDurations && endedAt.Before(startedAt) {
		return Record{}, false
	}

	return Record{Raw: r, StartedAt: startedAt, EndedAt: endedAt}, true
}

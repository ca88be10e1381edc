package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/apperr"
	"github.com/jengzang/bikeshare-insights-go/internal/logging"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

// Errors wrapped in DataErrors by LoadAndPrepare
var (
	ErrNoRecords   = errors.New("input contains no records")
	ErrNoValidRows = errors.New("no record has valid coordinates and timestamps")
)

// deriveBatchSize is how many records are derived between cancellation checks
const deriveBatchSize = 10000

// LoadAndPrepare validates raw records and derives their features.
// Individual bad rows are dropped; a DataError is returned only when the
// input as a whole is unusable.
func LoadAndPrepare(ctx context.Context, records []models.RawTrip, opts Options) (*models.TripSet, error) {
	start := time.Now()
	if len(records) == 0 {
		return nil, apperr.Data("loadAndPrepare", ErrNoRecords)
	}

	valid := Validate(records, opts)
	if len(valid) == 0 {
		return nil, apperr.Data("loadAndPrepare", ErrNoValidRows)
	}

	trips := make([]models.Trip, 0, len(valid))
	for offset := 0; offset < len(valid); offset += deriveBatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := min(offset+deriveBatchSize, len(valid))
		for _, rec := range valid[offset:end] {
			trips = append(trips, Derive(rec))
		}
	}

	set := &models.TripSet{
		Version:     Digest(records, opts),
		Trips:       trips,
		InputRows:   len(records),
		KeptRows:    len(trips),
		DroppedRows: len(records) - len(trips),
		LoadedAt:    time.Now(),
	}

	logging.LogOperation(logging.FromContext(ctx), "dataset_prepared",
		slog.Uint64("version", set.Version),
		slog.Int("input_rows", set.InputRows),
		slog.Int("kept_rows", set.KeptRows),
		slog.Int("dropped_rows", set.DroppedRows),
		slog.Duration("duration", time.Since(start)))

	return set, nil
}

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/bikeshare-insights-go/internal/config"
)

const seedCSV = `ride_id,started_at,ended_at,start_station_name,end_station_name,start_lat,start_lng,end_lat,end_lng,member_casual
r1,2024-10-07 08:00:00,2024-10-07 08:20:00,A,B,37.77,-122.41,37.78,-122.42,member
,2024-10-07 09:00:00,2024-10-07 09:15:00,,B,37.77,-122.41,37.78,-122.42,casual
`

func TestInitialRecordsRestartKeepsRowCount(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(seedCSV), 0o644))

	cfg := &config.Config{DataPath: csvPath, DBPath: filepath.Join(dir, "trips.db")}
	logger := slog.New(slog.DiscardHandler)

	for boot := 1; boot <= 3; boot++ {
		records, err := initialRecords(context.Background(), cfg, logger)
		require.NoError(t, err)
		assert.Len(t, records, 2, "boot %d", boot)
	}
}

func TestInitialRecordsCSVOnly(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "trips.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(seedCSV), 0o644))

	records, err := initialRecords(context.Background(), &config.Config{DataPath: csvPath}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestInitialRecordsNothingConfigured(t *testing.T) {
	records, err := initialRecords(context.Background(), &config.Config{}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Empty(t, records)
}

// Command insights loads a trip export and prints aggregate reports as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/analysis"
	"github.com/jengzang/bikeshare-insights-go/internal/cache"
	"github.com/jengzang/bikeshare-insights-go/internal/database"
	"github.com/jengzang/bikeshare-insights-go/internal/ingest"
	"github.com/jengzang/bikeshare-insights-go/internal/logging"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
	"github.com/jengzang/bikeshare-insights-go/internal/pipeline"
	"github.com/jengzang/bikeshare-insights-go/internal/repository"
	"github.com/jengzang/bikeshare-insights-go/internal/service"
)

func main() {
	csvPath := flag.String("csv", "", "trip CSV export to read")
	dbPath := flag.String("db", "", "SQLite database holding a trips table")
	importCSV := flag.Bool("import", false, "store the -csv rows into -db before reporting")
	queries := flag.String("queries", "summary,insights", "comma separated query types")
	n := flag.Int("n", 5, "ranking size")
	day := flag.String("day", "All", "day of week filter")
	hour := flag.Int("hour", 8, "hour for location_activity")
	dropNegative := flag.Bool("drop-negative", false, "drop trips whose end precedes their start")
	verbose := flag.Bool("v", false, "log progress to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := logging.NewStructuredLogger(os.Stderr, level)

	dayFilter, err := models.ParseDayFilter(*day)
	if err != nil {
		fatal(logger, err)
	}
	opts := pipeline.Options{Location: time.Local}
	if *dropNegative {
		opts.Durations = pipeline.DropNegativeDurations
	}

	ctx := context.Background()
	records, err := readRecords(ctx, *csvPath, *dbPath, *importCSV, logger)
	if err != nil {
		fatal(logger, err)
	}

	svc := service.NewAnalyticsService(cache.New(), opts, logger, nil)
	set, err := svc.Load(ctx, records)
	if err != nil {
		fatal(logger, err)
	}

	params := models.QueryParams{
		N:        *n,
		Day:      dayFilter,
		Hour:     *hour,
		FromHour: analysis.MorningFromHour,
		ToHour:   analysis.MorningToHour,
		Bins:     10,
	}

	report := map[string]any{"dataset": set}
	for _, name := range strings.Split(*queries, ",") {
		qt, err := analysis.ParseQueryType(name)
		if err != nil {
			fatal(logger, err)
		}
		result, err := svc.QueryCurrent(ctx, qt, params)
		if err != nil {
			fatal(logger, err)
		}
		report[string(qt)] = result
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fatal(logger, err)
	}
}

func readRecords(ctx context.Context, csvPath, dbPath string, importCSV bool, logger *slog.Logger) ([]models.RawTrip, error) {
	if csvPath == "" && dbPath == "" {
		return nil, fmt.Errorf("one of -csv or -db is required")
	}

	var records []models.RawTrip
	if csvPath != "" {
		var err error
		if records, err = ingest.ReadFile(csvPath); err != nil {
			return nil, err
		}
		if dbPath == "" || !importCSV {
			return records, nil
		}
	}

	db, err := database.Open(ctx, database.Config{Path: dbPath}, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := repository.NewTripRepository(db)
	if importCSV && len(records) > 0 {
		if _, err := repo.InsertRaw(ctx, records); err != nil {
			return nil, err
		}
	}
	return repo.ListRaw(ctx)
}

func fatal(logger *slog.Logger, err error) {
	logging.LogError(logger, "insights_failed", err)
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

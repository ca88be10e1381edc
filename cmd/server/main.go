package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jengzang/bikeshare-insights-go/internal/api"
	"github.com/jengzang/bikeshare-insights-go/internal/cache"
	"github.com/jengzang/bikeshare-insights-go/internal/config"
	"github.com/jengzang/bikeshare-insights-go/internal/database"
	"github.com/jengzang/bikeshare-insights-go/internal/ingest"
	"github.com/jengzang/bikeshare-insights-go/internal/logging"
	"github.com/jengzang/bikeshare-insights-go/internal/metrics"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
	"github.com/jengzang/bikeshare-insights-go/internal/publisher"
	"github.com/jengzang/bikeshare-insights-go/internal/repository"
	"github.com/jengzang/bikeshare-insights-go/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logging.LogError(logger, "server_failed", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	analytics := service.NewAnalyticsService(
		cache.New(cache.WithMetrics(collector)),
		cfg.PipelineOptions(),
		logger,
		collector,
	)

	// 帧发布 (可选)
	var sink service.FrameSink
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger, collector)
		if err != nil {
			return err
		}
		defer pub.Close()
		sink = pub
	}

	timelapse, err := service.NewTimelapseService(analytics, cfg.HourMin, cfg.HourMax, sink, collector, logger)
	if err != nil {
		return err
	}

	// 初始数据集
	records, err := initialRecords(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		if _, err := analytics.Load(ctx, records); err != nil {
			return err
		}
	}

	// 初始化路由
	router := api.SetupRouter(api.Deps{
		Config:    cfg,
		Analytics: analytics,
		Timelapse: timelapse,
		Metrics:   collector,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "server_starting", slog.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.LogOperation(logger, "server_stopping")
	timelapse.Cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// initialRecords reads the startup dataset: the trips table when DB_PATH is
// set, else the CSV at DATA_PATH. With both set the CSV seeds an empty table
// and is ignored once the table holds trips.
func initialRecords(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]models.RawTrip, error) {
	var records []models.RawTrip
	if cfg.DataPath != "" {
		var err error
		if records, err = ingest.ReadFile(cfg.DataPath); err != nil {
			return nil, err
		}
		logging.LogOperation(logger, "csv_read",
			slog.String("path", cfg.DataPath),
			slog.Int("rows", len(records)))
	}

	if cfg.DBPath == "" {
		return records, nil
	}

	db, err := database.Open(ctx, database.Config{Path: cfg.DBPath}, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := repository.NewTripRepository(db)
	if len(records) > 0 {
		stored, err := repo.Count(ctx)
		if err != nil {
			return nil, err
		}
		if stored == 0 {
			n, err := repo.InsertRaw(ctx, records)
			if err != nil {
				return nil, err
			}
			logging.LogOperation(logger, "csv_imported", slog.Int("rows", n))
		} else {
			logging.LogOperation(logger, "csv_import_skipped",
				slog.String("path", cfg.DataPath),
				slog.Int64("stored_rows", stored))
		}
	}
	return repo.ListRaw(ctx)
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jengzang/bikeshare-insights-go/internal/logging"
	"github.com/jengzang/bikeshare-insights-go/internal/pipeline"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBPath   string // Optional SQLite source of raw trips
	DataPath string // Optional CSV loaded at startup

	Location          *time.Location // For timestamps without a zone
	NegativeDurations pipeline.DurationPolicy

	FrameDelay time.Duration // Pacing of the timelapse stream
	HourMin    int
	HourMax    int
	TopN       int // Default n for ranking queries

	RateLimit int // Requests per minute per client; 0 disables

	NATSURL     string // Empty disables frame publishing
	NATSSubject string

	LogLevel slog.Level
}

// PipelineOptions returns the validation and derivation options
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{Location: c.Location, Durations: c.NegativeDurations}
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getenvDefault("PORT", ":8080"),
		DBPath:      os.Getenv("DB_PATH"),
		DataPath:    os.Getenv("DATA_PATH"),
		NATSURL:     os.Getenv("NATS_URL"),
		NATSSubject: getenvDefault("NATS_SUBJECT", "timelapse"),
		LogLevel:    logging.ParseLevel(os.Getenv("LOG_LEVEL")),
	}
	if !strings.HasPrefix(cfg.Port, ":") && !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	// Time zone
	if tzName := os.Getenv("TZ"); tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	switch policy := pipeline.DurationPolicy(strings.ToLower(getenvDefault("NEGATIVE_DURATIONS", "retain"))); policy {
	case pipeline.RetainNegativeDurations, pipeline.DropNegativeDurations:
		cfg.NegativeDurations = policy
	default:
		return nil, fmt.Errorf("invalid NEGATIVE_DURATIONS: %q (want retain or drop)", policy)
	}

	ms, err := getenvInt("FRAME_DELAY_MS", 1000, 0)
	if err != nil {
		return nil, err
	}
	cfg.FrameDelay = time.Duration(ms) * time.Millisecond

	if cfg.HourMin, err = getenvInt("HOUR_MIN", 0, 0); err != nil {
		return nil, err
	}
	if cfg.HourMax, err = getenvInt("HOUR_MAX", 23, 0); err != nil {
		return nil, err
	}
	if cfg.HourMax > 23 || cfg.HourMin > cfg.HourMax {
		return nil, fmt.Errorf("invalid hour range %d-%d: want 0 <= HOUR_MIN <= HOUR_MAX <= 23", cfg.HourMin, cfg.HourMax)
	}

	if cfg.TopN, err = getenvInt("TOP_N", 10, 1); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getenvInt("RATE_LIMIT", 120, 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def, min int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}

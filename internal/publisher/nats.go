package publisher

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
	metrics PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// FrameMessage is the payload published for each timelapse frame
type FrameMessage struct {
	DatasetVersion uint64                 `json:"datasetVersion"`
	Day            models.DayFilter       `json:"day"`
	Hour           int                    `json:"hour"`
	Locations      []models.LocationCount `json:"locations"`
	Timestamp      time.Time              `json:"timestamp"`
}

func NewNATSPublisher(url, subject string, logger *slog.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("bikeshare-insights"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logger.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, subject: subject, logger: logger, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// PublishFrame publishes msg on <subject>.<day>.<hour>
func (p *NATSPublisher) PublishFrame(msg FrameMessage) error {
	subject := FrameSubject(p.subject, msg.Day, msg.Hour)
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	p.logger.Debug("nats publish", slog.String("subject", subject))

	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// FrameSubject builds the subject a frame is published on
func FrameSubject(prefix string, day models.DayFilter, hour int) string {
	return fmt.Sprintf("%s.%s.%02d", subjectToken(prefix), subjectToken(strings.ToLower(day.String())), hour)
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

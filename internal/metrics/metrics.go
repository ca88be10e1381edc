package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/bikeshare-insights-go/internal/cache"
	"github.com/jengzang/bikeshare-insights-go/internal/models"
)

type Collector struct {
	reg *prometheus.Registry

	CacheHits         *prometheus.CounterVec   // stage
	CacheMisses       *prometheus.CounterVec   // stage
	CacheComputations *prometheus.CounterVec   // stage, result: ok|error
	ComputeDuration   *prometheus.HistogramVec // stage

	QueryDuration *prometheus.HistogramVec // query

	DatasetLoads prometheus.Counter
	DatasetRows  *prometheus.GaugeVec // kind: input|kept|dropped

	FramesEmitted prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	HTTPRequests *prometheus.CounterVec // method, route, status
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeshare_cache_hits_total",
			Help: "Memoization cache hits.",
		}, []string{"stage"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeshare_cache_misses_total",
			Help: "Memoization cache misses.",
		}, []string{"stage"}),
		CacheComputations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeshare_cache_computations_total",
			Help: "Computations run on behalf of the memoization cache.",
		}, []string{"stage", "result"}),
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikeshare_compute_duration_seconds",
			Help:    "Duration of memoized computations.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 18),
		}, []string{"stage"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bikeshare_query_duration_seconds",
			Help:    "Duration of aggregate queries including cache lookups.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 18),
		}, []string{"query"}),
		DatasetLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikeshare_dataset_loads_total",
			Help: "Datasets loaded and prepared.",
		}),
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bikeshare_dataset_rows",
			Help: "Row counts of the current dataset.",
		}, []string{"kind"}),
		FramesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikeshare_timelapse_frames_total",
			Help: "Timelapse frames produced.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikeshare_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikeshare_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bikeshare_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikeshare_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikeshare_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.CacheHits, c.CacheMisses, c.CacheComputations, c.ComputeDuration,
		c.QueryDuration, c.DatasetLoads, c.DatasetRows, c.FramesEmitted,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.HTTPRequests,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Registry exposes the underlying registry, mainly for tests
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// CacheHit implements cache.Metrics
func (c *Collector) CacheHit(stage cache.Stage) { c.CacheHits.WithLabelValues(string(stage)).Inc() }

// CacheMiss implements cache.Metrics
func (c *Collector) CacheMiss(stage cache.Stage) { c.CacheMisses.WithLabelValues(string(stage)).Inc() }

// CacheCompute implements cache.Metrics
func (c *Collector) CacheCompute(stage cache.Stage, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.CacheComputations.WithLabelValues(string(stage), result).Inc()
	c.ComputeDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// ObserveQuery records the latency of one aggregate query
func (c *Collector) ObserveQuery(query string, d time.Duration) {
	c.QueryDuration.WithLabelValues(query).Observe(d.Seconds())
}

// DatasetLoaded records the row counts of a newly loaded dataset
func (c *Collector) DatasetLoaded(set *models.TripSet) {
	c.DatasetLoads.Inc()
	c.DatasetRows.WithLabelValues("input").Set(float64(set.InputRows))
	c.DatasetRows.WithLabelValues("kept").Set(float64(set.KeptRows))
	c.DatasetRows.WithLabelValues("dropped").Set(float64(set.DroppedRows))
}

// FrameEmitted counts one timelapse frame
func (c *Collector) FrameEmitted() { c.FramesEmitted.Inc() }

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(b bool) {
	if b {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}

// RequestServed counts one HTTP request
func (c *Collector) RequestServed(method, route string, status int) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

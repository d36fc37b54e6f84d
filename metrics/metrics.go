package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is what the HTTP layer and the realtime adapter report into.
type Recorder interface {
	ObserveRequest(method, route string, status int, latency time.Duration)
	IncRealtimeEvent(table, eventType string)
	ObserveRealtimeBatch(size int)
}

type recorder struct {
	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	realtimeEvents *prometheus.CounterVec
	batchSize      prometheus.Histogram
}

// New registers the collectors on registry.
func New(registry prometheus.Registerer) Recorder {
	factory := promauto.With(registry)
	return &recorder{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{.005, .01, .025, .05, .1, .2, .5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		realtimeEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "realtime_events_total",
				Help: "Change events seen by the realtime adapter",
			},
			[]string{"table", "type"},
		),
		batchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "realtime_batch_size",
				Help:    "Number of change events folded into one flushed batch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
	}
}

func (r *recorder) ObserveRequest(method, route string, status int, latency time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

func (r *recorder) IncRealtimeEvent(table, eventType string) {
	r.realtimeEvents.WithLabelValues(table, eventType).Inc()
}

func (r *recorder) ObserveRealtimeBatch(size int) {
	r.batchSize.Observe(float64(size))
}

type nop struct{}

// Nop is a Recorder that drops everything.
func Nop() Recorder { return nop{} }

func (nop) ObserveRequest(string, string, int, time.Duration) {}
func (nop) IncRealtimeEvent(string, string)                   {}
func (nop) ObserveRealtimeBatch(int)                          {}

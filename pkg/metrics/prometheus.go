package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"TradeDesk/internal/domain/models"
)

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	requests     *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
	registrySize prometheus.Gauge
}

// New returns the process-wide recorder registered on the default registry.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = NewWithRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRecorder
}

// NewWithRegistry registers a fresh set of collectors on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedesk_gateway_requests_total",
				Help: "Total number of backend gateway calls by outcome",
			},
			[]string{"op", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradedesk_gateway_request_seconds",
				Help:    "Duration of backend gateway calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradedesk_model_transitions_total",
				Help: "Model lifecycle transitions applied to the registry",
			},
			[]string{"op", "from", "to"},
		),
		registrySize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradedesk_registry_models",
				Help: "Number of models currently held in the registry",
			},
		),
	}
}

// RecordRequest counts a gateway call with its outcome.
func (r *Recorder) RecordRequest(op, result string) {
	r.requests.WithLabelValues(op, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordTransition(op string, from, to models.Status) {
	r.transitions.WithLabelValues(op, string(from), string(to)).Inc()
}

func (r *Recorder) RecordRegistrySize(n int) {
	r.registrySize.Set(float64(n))
}

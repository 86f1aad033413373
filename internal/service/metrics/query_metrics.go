package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ExportLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tradedesk",
			Subsystem: "export",
			Name:      "latency_seconds",
			Help:      "Latency of historical exports by format",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	ExportBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradedesk",
			Subsystem: "export",
			Name:      "bytes_total",
			Help:      "Bytes written by historical exports",
		},
		[]string{"format"},
	)

	ExportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradedesk",
			Subsystem: "export",
			Name:      "errors_total",
			Help:      "Failed historical exports by format",
		},
		[]string{"format"},
	)

	QueryResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tradedesk",
			Subsystem: "query",
			Name:      "results_total",
			Help:      "Historical query outcomes",
		},
		[]string{"outcome"},
	)

	QueryBars = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tradedesk",
			Subsystem: "query",
			Name:      "bars",
			Help:      "Bars returned per historical query",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ExportLatency, ExportBytes, ExportErrors, QueryResults, QueryBars)
	})
}

// ObserveExport records one export attempt.
func ObserveExport(format string, bytes int, d time.Duration, err error) {
	if err != nil {
		ExportErrors.WithLabelValues(format).Inc()
		return
	}
	ExportLatency.WithLabelValues(format).Observe(d.Seconds())
	ExportBytes.WithLabelValues(format).Add(float64(bytes))
}

// ObserveQuery records a historical query outcome: ok, truncated, degraded or empty.
func ObserveQuery(bars int, truncated, degraded bool) {
	outcome := "ok"
	switch {
	case degraded:
		outcome = "degraded"
	case bars == 0:
		outcome = "empty"
	case truncated:
		outcome = "truncated"
	}
	QueryResults.WithLabelValues(outcome).Inc()
	if !degraded {
		QueryBars.Observe(float64(bars))
	}
}

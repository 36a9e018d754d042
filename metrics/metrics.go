package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "stmtscrape_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	recordsTotal      *prometheus.CounterVec
	unreconciledTotal *prometheus.CounterVec
	sessionTotal      *prometheus.CounterVec
	sessionLatency    *prometheus.HistogramVec
	exportTotal       *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Observe helpers
// are no-ops until it has run.
func Init() {
	registerOnce.Do(func() {
		recordsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_total",
				Help: "Assembled transaction records by layout and type",
			},
			[]string{"layout", "type"},
		)
		unreconciledTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "unreconciled_rows_total",
				Help: "Rows whose balance movement matched neither debit nor credit",
			},
			[]string{"layout"},
		)
		sessionTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sessions_total",
				Help: "Parsing sessions by layout and result",
			},
			[]string{"layout", "result"},
		)
		sessionLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "session_latency_seconds",
				Help:    "Parsing session latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"layout", "result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(recordsTotal, unreconciledTotal, sessionTotal, sessionLatency, exportTotal)
	})
}

func AddRecords(layout, txType string, n int) {
	if recordsTotal != nil && n > 0 {
		recordsTotal.WithLabelValues(layout, txType).Add(float64(n))
	}
}

func AddUnreconciled(layout string, n int) {
	if unreconciledTotal != nil && n > 0 {
		unreconciledTotal.WithLabelValues(layout).Add(float64(n))
	}
}

func ObserveSession(layout, result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if sessionTotal != nil {
		sessionTotal.WithLabelValues(layout, result).Inc()
	}
	if sessionLatency != nil {
		sessionLatency.WithLabelValues(layout, result).Observe(duration.Seconds())
	}
}

func IncExport(format, result string) {
	if format == "" {
		return
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

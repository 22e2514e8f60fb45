package observability

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// Operation results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// SocialGraphMetrics holds socialgraph metrics on a private registry.
type SocialGraphMetrics struct {
	Registry *prometheus.Registry

	// Operations
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Network size
	Members     prometheus.Gauge
	Connections prometheus.Gauge

	// Storage
	StorageDuration *prometheus.HistogramVec
	StorageErrors   *prometheus.CounterVec

	// Exports
	ExportFilesTotal *prometheus.CounterVec
}

// NewSocialGraphMetrics creates socialgraph metrics.
func NewSocialGraphMetrics() *SocialGraphMetrics {
	r := prometheus.NewRegistry()
	f := promauto.With(r)

	return &SocialGraphMetrics{
		Registry: r,

		OperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialgraph_operations_total",
			Help: "Total network operations by operation and result",
		}, []string{"operation", "result"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialgraph_operation_duration_seconds",
			Help:    "Network operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
		}, []string{"operation"}),

		Members: f.NewGauge(prometheus.GaugeOpts{
			Name: "socialgraph_members",
			Help: "Number of registered members",
		}),
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Name: "socialgraph_connections",
			Help: "Number of connections",
		}),

		StorageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "socialgraph_storage_duration_seconds",
			Help:    "Repository load and save duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend", "action"}),
		StorageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialgraph_storage_errors_total",
			Help: "Total repository failures by backend and action",
		}, []string{"backend", "action"}),

		ExportFilesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "socialgraph_export_files_total",
			Help: "Total files written by export format",
		}, []string{"format"}),
	}
}

// WriteTextfile writes every metric to path in the text exposition format
// read by the node exporter textfile collector.
func (m *SocialGraphMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// resultOf maps an operation error to a result label. Domain rejections such
// as duplicate registrations are told apart from other failures.
func resultOf(err error) string {
	if err == nil {
		return ResultOK
	}
	var nerr *network.Error
	if errors.As(err, &nerr) {
		return ResultRejected
	}
	return ResultError
}

// RecordOperation records a network operation.
func (m *SocialGraphMetrics) RecordOperation(op string, duration time.Duration, err error) {
	m.OperationsTotal.WithLabelValues(op, resultOf(err)).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordSize updates the network size gauges.
func (m *SocialGraphMetrics) RecordSize(members, connections int) {
	m.Members.Set(float64(members))
	m.Connections.Set(float64(connections))
}

// RecordStorage records a repository load or save.
func (m *SocialGraphMetrics) RecordStorage(backend, action string, duration time.Duration, err error) {
	m.StorageDuration.WithLabelValues(backend, action).Observe(duration.Seconds())
	if err != nil {
		m.StorageErrors.WithLabelValues(backend, action).Inc()
	}
}

// RecordExport records files written by an export.
func (m *SocialGraphMetrics) RecordExport(format string, files int) {
	m.ExportFilesTotal.WithLabelValues(format).Add(float64(files))
}

// Global metrics instance
var globalMetrics *SocialGraphMetrics
var metricsOnce sync.Once

// Metrics returns the global metrics instance.
func Metrics() *SocialGraphMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewSocialGraphMetrics()
	})
	return globalMetrics
}

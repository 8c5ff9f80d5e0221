// Package metrics counts prove and verify outcomes on a private Prometheus registry.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zkaccess/zkpass/shared"
)

const namespace = "zkpass"

const (
	ResultOK        = "ok"
	ResultMalformed = "malformed"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
)

// Metrics is safe for concurrent use. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	proveTotal     *prometheus.CounterVec
	verifyTotal    *prometheus.CounterVec
	proveDuration  *prometheus.HistogramVec
	verifyDuration *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		proveTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prove_total",
			Help:      "Number of prove calls by backend mode and result",
		}, []string{"mode", "result"}),
		verifyTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_total",
			Help:      "Number of verify calls by backend mode and result",
		}, []string{"mode", "result"}),
		proveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prove_duration_seconds",
			Help:      "Duration of prove calls in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"mode"}),
		verifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verify_duration_seconds",
			Help:      "Duration of verify calls in seconds",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"mode"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveProve(mode shared.Mode, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.proveTotal.WithLabelValues(string(mode), Result(err)).Inc()
	m.proveDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
}

func (m *Metrics) ObserveVerify(mode shared.Mode, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.verifyTotal.WithLabelValues(string(mode), Result(err)).Inc()
	m.verifyDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
}

// WriteTextfile writes the collected metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Result classifies err into a result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, shared.ErrVerificationRejected), errors.Is(err, shared.ErrNonceMismatch):
		return ResultRejected
	case errors.Is(err, shared.ErrMalformedEncoding), errors.Is(err, shared.ErrMalformedReceipt):
		return ResultMalformed
	default:
		return ResultFailed
	}
}

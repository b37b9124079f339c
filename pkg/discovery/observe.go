package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics are registered on the caller's registerer, separate from the
// server's process-wide metrics.
type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "discovery",
			Subsystem: "embedded",
			Name:      "operations_total",
			Help:      "Embedded client operations by name and result.",
		}, []string{"operation", "result"}), // result: ok / error / a terminal session state
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "discovery",
			Subsystem: "embedded",
			Name:      "operation_duration_seconds",
			Help:      "Embedded client operation duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or points it at an identical collector a
// previous client already registered.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("discovery: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("discovery: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and counts client operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// observe records an operation that either succeeded or returned err.
func (o *observer) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	o.record(op, result, start, err)
}

// observeOutcome records a search that settled in out. A wait that timed
// out is recorded as loading.
func (o *observer) observeOutcome(op string, start time.Time, out Outcome, waitErr error) {
	result := string(out.State)
	if waitErr != nil {
		result = string(StateLoading)
	}
	err := out.Err
	if err == nil {
		err = waitErr
	}
	o.record(op, result, start, err)
}

func (o *observer) record(op, result string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, result).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("discovery operation failed",
			"op", op,
			"result", result,
			"duration", dur,
			"error", err,
		)
		return
	}
	o.logger.Debug("discovery operation completed",
		"op", op,
		"result", result,
		"duration", dur,
	)
}

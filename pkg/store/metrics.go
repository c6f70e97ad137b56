// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchOutcome classifies how a dispatch ended.
type DispatchOutcome string

const (
	// OutcomeCommitted means the reducer produced a new state.
	OutcomeCommitted DispatchOutcome = "committed"
	// OutcomeNoop means the reducer returned the state it was given.
	OutcomeNoop DispatchOutcome = "noop"
	// OutcomeUnhandled means no reducer was registered for the action type.
	OutcomeUnhandled DispatchOutcome = "unhandled"
	// OutcomeFailed means middleware or the reducer failed.
	OutcomeFailed DispatchOutcome = "failed"
	// OutcomeRejected means the store refused the dispatch (destroyed or busy).
	OutcomeRejected DispatchOutcome = "rejected"
)

// MetricsCollector defines the interface for collecting store metrics.
type MetricsCollector interface {
	// RecordDispatch records one dispatch of actionType.
	RecordDispatch(actionType string, outcome DispatchOutcome, duration time.Duration)

	// RecordHistory records the history length and index after a change.
	RecordHistory(length, index int)

	// RecordTimeTravel records a successful undo or redo.
	RecordTimeTravel(direction string)

	// RecordPersistence records a persist, load or clear operation.
	RecordPersistence(operation string, success bool)
}

// NoOpMetricsCollector discards every metric.
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordDispatch(string, DispatchOutcome, time.Duration) {}
func (NoOpMetricsCollector) RecordHistory(int, int)                                {}
func (NoOpMetricsCollector) RecordTimeTravel(string)                               {}
func (NoOpMetricsCollector) RecordPersistence(string, bool)                        {}

// PrometheusMetricsCollector implements MetricsCollector using Prometheus metrics.
type PrometheusMetricsCollector struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	historyLength    prometheus.Gauge
	historyIndex     prometheus.Gauge
	timeTravelTotal  *prometheus.CounterVec
	persistenceTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// PrometheusMetricsConfig contains configuration for Prometheus metrics.
type PrometheusMetricsConfig struct {
	// Namespace is the Prometheus namespace for all metrics (default: "scribe")
	Namespace string

	// Subsystem is the Prometheus subsystem for all metrics (default: "store")
	Subsystem string

	// Registry is the Prometheus registry to use. If nil, a new registry is created.
	Registry *prometheus.Registry

	// DurationBuckets defines the buckets for the dispatch duration histogram.
	DurationBuckets []float64
}

// DefaultPrometheusMetricsConfig returns a default configuration for Prometheus metrics.
func DefaultPrometheusMetricsConfig() *PrometheusMetricsConfig {
	return &PrometheusMetricsConfig{
		Namespace:       "scribe",
		Subsystem:       "store",
		Registry:        prometheus.NewRegistry(),
		DurationBuckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	}
}

// NewPrometheusMetricsCollector creates a Prometheus-based metrics collector
// and registers its metrics with the configured registry.
func NewPrometheusMetricsCollector(config *PrometheusMetricsConfig) (*PrometheusMetricsCollector, error) {
	if config == nil {
		config = DefaultPrometheusMetricsConfig()
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Namespace == "" {
		config.Namespace = "scribe"
	}
	if config.Subsystem == "" {
		config.Subsystem = "store"
	}
	if config.DurationBuckets == nil {
		config.DurationBuckets = DefaultPrometheusMetricsConfig().DurationBuckets
	}

	c := &PrometheusMetricsCollector{registry: config.Registry}

	c.dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "dispatch_total",
			Help:      "Total number of dispatched actions by type and outcome",
		},
		[]string{"action_type", "outcome"},
	)

	c.dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of dispatches in seconds",
			Buckets:   config.DurationBuckets,
		},
		[]string{"action_type"},
	)

	c.historyLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "history_length",
			Help:      "Number of snapshots in the undo history",
		},
	)

	c.historyIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "history_index",
			Help:      "Position of the live state in the undo history",
		},
	)

	c.timeTravelTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "time_travel_total",
			Help:      "Total number of successful undo and redo operations",
		},
		[]string{"direction"},
	)

	c.persistenceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "persistence_total",
			Help:      "Total number of persistence operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	collectors := []prometheus.Collector{
		c.dispatchTotal,
		c.dispatchDuration,
		c.historyLength,
		c.historyIndex,
		c.timeTravelTotal,
		c.persistenceTotal,
	}
	for _, col := range collectors {
		if err := config.Registry.Register(col); err != nil {
			return nil, err
		}
	}

	c.historyIndex.Set(-1)
	return c, nil
}

// RecordDispatch implements MetricsCollector.
func (c *PrometheusMetricsCollector) RecordDispatch(actionType string, outcome DispatchOutcome, duration time.Duration) {
	c.dispatchTotal.WithLabelValues(actionType, string(outcome)).Inc()
	c.dispatchDuration.WithLabelValues(actionType).Observe(duration.Seconds())
}

// RecordHistory implements MetricsCollector.
func (c *PrometheusMetricsCollector) RecordHistory(length, index int) {
	c.historyLength.Set(float64(length))
	c.historyIndex.Set(float64(index))
}

// RecordTimeTravel implements MetricsCollector.
func (c *PrometheusMetricsCollector) RecordTimeTravel(direction string) {
	c.timeTravelTotal.WithLabelValues(direction).Inc()
}

// RecordPersistence implements MetricsCollector.
func (c *PrometheusMetricsCollector) RecordPersistence(operation string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.persistenceTotal.WithLabelValues(operation, status).Inc()
}

// GetRegistry returns the Prometheus registry holding the store metrics.
func (c *PrometheusMetricsCollector) GetRegistry() *prometheus.Registry {
	return c.registry
}

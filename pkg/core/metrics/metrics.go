/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics holds the channel client metrics.
package metrics

import (
	"net/http"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const subsystem = "channel"

var (
	durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

	queriesReceived = prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "queries_received",
		Help:      "The number of channel client queries received.",
	}
	queriesFailed = prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "queries_failed",
		Help:      "The number of channel client queries that failed.",
	}
	queryDuration = prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "query_duration",
		Help:      "The time to complete channel client query.",
		Buckets:   durationBuckets,
	}
	executionsReceived = prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "executions_received",
		Help:      "The number of channel client executions received.",
	}
	executionsFailed = prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "executions_failed",
		Help:      "The number of channel client executions that failed (timeouts excluded).",
	}
	commitTimeouts = prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "commit_timeouts",
		Help:      "The number of channel executions whose commit event did not arrive in time.",
	}
	executionDuration = prometheus.HistogramOpts{
		Subsystem: subsystem,
		Name:      "execution_duration",
		Help:      "The time to complete channel client execution.",
		Buckets:   durationBuckets,
	}

	callLabels = []string{"chaincode", "Fcn"}
	failLabels = []string{"chaincode", "Fcn", "fail"}
)

// ClientMetrics contains the metrics used in the channel client
type ClientMetrics struct {
	QueriesReceived    metrics.Counter
	QueriesFailed      metrics.Counter
	QueryDuration      metrics.Histogram
	ExecutionsReceived metrics.Counter
	ExecutionsFailed   metrics.Counter
	ExecutionDuration  metrics.Histogram
	CommitTimeouts     metrics.Counter

	registry *prometheus.Registry
}

// NewClientMetrics registers the client metrics in a new Prometheus registry
// under the given namespace
func NewClientMetrics(namespace string) *ClientMetrics {
	r := prometheus.NewRegistry()

	counter := func(opts prometheus.CounterOpts, labels []string) metrics.Counter {
		opts.Namespace = namespace
		cv := prometheus.NewCounterVec(opts, labels)
		r.MustRegister(cv)
		return kitprometheus.NewCounter(cv)
	}
	histogram := func(opts prometheus.HistogramOpts, labels []string) metrics.Histogram {
		opts.Namespace = namespace
		hv := prometheus.NewHistogramVec(opts, labels)
		r.MustRegister(hv)
		return kitprometheus.NewHistogram(hv)
	}

	return &ClientMetrics{
		QueriesReceived:    counter(queriesReceived, callLabels),
		QueriesFailed:      counter(queriesFailed, failLabels),
		QueryDuration:      histogram(queryDuration, callLabels),
		ExecutionsReceived: counter(executionsReceived, callLabels),
		ExecutionsFailed:   counter(executionsFailed, failLabels),
		ExecutionDuration:  histogram(executionDuration, callLabels),
		CommitTimeouts:     counter(commitTimeouts, callLabels),
		registry:           r,
	}
}

// NewDiscardMetrics returns client metrics that record nothing
func NewDiscardMetrics() *ClientMetrics {
	return &ClientMetrics{
		QueriesReceived:    discard.NewCounter(),
		QueriesFailed:      discard.NewCounter(),
		QueryDuration:      discard.NewHistogram(),
		ExecutionsReceived: discard.NewCounter(),
		ExecutionsFailed:   discard.NewCounter(),
		ExecutionDuration:  discard.NewHistogram(),
		CommitTimeouts:     discard.NewCounter(),
	}
}

// Registry returns the Prometheus registry, nil for discarding metrics
func (m *ClientMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *ClientMetrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

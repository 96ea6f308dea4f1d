package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Query outcome labels.
const (
	StatusOK       = "ok"
	StatusInvalid  = "invalid"
	StatusNotFound = "not_found"
	StatusError    = "error"
	StatusCached   = "cached"
)

// Metrics holds the query engine collectors.
type Metrics struct {
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	BatchQueries  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "analytics",
			Name:      "queries_total",
			Help:      "Parameter queries dispatched, by outcome.",
		}, []string{"parameter", "status"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "analytics",
			Name:      "query_duration_seconds",
			Help:      "Time taken by the store to answer a parameter query.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"parameter"}),
		BatchQueries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "analytics",
			Name:      "batch_queries",
			Help:      "Logical requests per batch.",
			Buckets:   prometheus.LinearBuckets(1, 5, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Queries, m.QueryDuration, m.BatchQueries)
	}
	return m
}

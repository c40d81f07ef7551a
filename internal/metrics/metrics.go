package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"familytree/internal/genealogy"
)

const namespace = "familytree"

var (
	// HTTPRequestsTotal counts API requests.
	// Labels: method, route, status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration measures API latency.
	// Labels: method, route
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// RelationshipMutations counts relationship writes.
	// Labels: operation (create, delete), outcome (ok, rejected, error)
	RelationshipMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relationships",
		Name:      "mutations_total",
		Help:      "Relationship create and delete calls by outcome",
	}, []string{"operation", "outcome"})

	// ValidationRejections counts edges refused by the ancestry validator.
	// Labels: reason
	ValidationRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relationships",
		Name:      "rejections_total",
		Help:      "Relationships rejected by validation, by reason",
	}, []string{"reason"})

	// QueryDuration measures graph queries.
	// Labels: query (path, ancestors, descendants, tree)
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "query_duration_seconds",
		Help:      "Graph query latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"query"})
)

// ObserveMutation records the outcome of a relationship create or delete
func ObserveMutation(operation string, err error) {
	switch {
	case err == nil:
		RelationshipMutations.WithLabelValues(operation, "ok").Inc()
	case genealogy.IsViolation(err):
		RelationshipMutations.WithLabelValues(operation, "rejected").Inc()
		ValidationRejections.WithLabelValues(RejectionReason(err)).Inc()
	default:
		RelationshipMutations.WithLabelValues(operation, "error").Inc()
	}
}

// RejectionReason maps a validation error to a stable label value
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, genealogy.ErrSelfRelationship):
		return "self_relationship"
	case errors.Is(err, genealogy.ErrCrossFamily):
		return "cross_family"
	case errors.Is(err, genealogy.ErrCircularAncestry):
		return "circular_ancestry"
	case errors.Is(err, genealogy.ErrAgeOrder):
		return "age_order"
	default:
		return "other"
	}
}

// ObserveQuery records how long a graph query took
func ObserveQuery(query string, start time.Time) {
	QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

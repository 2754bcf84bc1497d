package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-resell-backoffice/internal/model"
)

const (
	OutcomeSuccess    = "success"
	OutcomeNotFound   = "not_found"
	OutcomeConstraint = "constraint_violation"
	OutcomeTransport  = "transport_error"
	OutcomeInvalid    = "invalid_input"
	OutcomeError      = "error"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	cacheRequests *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trash_operations_total",
		Help: "Trash operations by kind and outcome.",
	}, []string{"operation", "outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trash_operation_duration_seconds",
		Help:    "Trash operation latency including backend round trips.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	cacheRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_cache_requests_total",
		Help: "Listing cache lookups by result.",
	}, []string{"result"})

	registry.MustRegister(
		operations,
		duration,
		cacheRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry:      registry,
		operations:    operations,
		duration:      duration,
		cacheRequests: cacheRequests,
	}
}

func (m *Metrics) ObserveOperation(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) CacheResult(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome maps an operation error onto a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, model.ErrTrashItemNotFound), errors.Is(err, model.ErrRowNotFound):
		return OutcomeNotFound
	case errors.Is(err, model.ErrConstraintViolation):
		return OutcomeConstraint
	case errors.Is(err, model.ErrTransport):
		return OutcomeTransport
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrUnknownTable):
		return OutcomeInvalid
	}
	return OutcomeError
}

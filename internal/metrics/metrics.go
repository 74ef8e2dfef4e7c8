package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mebellar_admin"

// Metrics groups the collectors of one process. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	attributeOps     *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	specSaves        *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		attributeOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attribute_operations_total",
			Help:      "Attribute schema operations by outcome",
		}, []string{"op", "result"}),
		validationErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spec_validation_failures_total",
			Help:      "Field-level product spec validation failures by code",
		}, []string{"code"}),
		specSaves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spec_saves_total",
			Help:      "Product spec save attempts by outcome",
		}, []string{"result"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) AttributeOp(op string, err error) {
	if m == nil {
		return
	}
	m.attributeOps.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) ValidationFailure(code string) {
	if m == nil {
		return
	}
	m.validationErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) SpecSave(err error) {
	if m == nil {
		return
	}
	m.specSaves.WithLabelValues(result(err)).Inc()
}

// Middleware records request counts and latency. The route pattern is used
// as the path label to keep cardinality bounded.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		m.httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks backend HTTP traffic: volume, latency, retries and
// time lost to the client-side rate limiter. All methods tolerate a nil
// receiver so the client can run unmetered.
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	rateLimitWait   prometheus.Histogram
	circuitOpen     prometheus.Counter
}

// NewRequestMetrics creates the backend request metrics
func NewRequestMetrics() *RequestMetrics {
	return &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "backend_requests_total",
				Help:      "Total backend requests, by endpoint and status code",
			},
			[]string{"endpoint", "status_code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "backend_request_duration_seconds",
				Help:      "Backend request duration, including retries",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"endpoint"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "backend_retries_total",
				Help:      "Backend request retries, by cause",
			},
			[]string{"endpoint", "cause"},
		),
		rateLimitWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "backend_rate_limit_wait_seconds",
				Help:      "Time spent waiting on the client-side rate limiter",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.0, 5.0},
			},
		),
		circuitOpen: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "backend_circuit_open_total",
				Help:      "Requests refused locally because the circuit breaker was open",
			},
		),
	}
}

// Register registers all metrics with the given registry
func (m *RequestMetrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.requestsTotal,
		m.requestDuration,
		m.retriesTotal,
		m.rateLimitWait,
		m.circuitOpen,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *RequestMetrics) ObserveRequest(endpoint string, statusCode int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(endpoint).Observe(seconds)
}

func (m *RequestMetrics) Retry(endpoint, cause string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(endpoint, cause).Inc()
}

func (m *RequestMetrics) ObserveRateLimitWait(seconds float64) {
	if m == nil {
		return
	}
	m.rateLimitWait.Observe(seconds)
}

func (m *RequestMetrics) CircuitOpen() {
	if m == nil {
		return
	}
	m.circuitOpen.Inc()
}

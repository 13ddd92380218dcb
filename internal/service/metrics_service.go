package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	alertsRaised    prometheus.Counter
	alertsAcked     prometheus.Counter
	itemsReported   *prometheus.CounterVec
	deductions      prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	alertsRaised := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sos_alerts_raised_total",
		Help: "Total SOS alerts raised",
	})

	alertsAcked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sos_alerts_acknowledged_total",
		Help: "Total SOS alerts acknowledged",
	})

	itemsReported := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lost_found_items_reported_total",
		Help: "Total lost-and-found items reported by intake intent",
	}, []string{"intent"})

	deductions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "point_deductions_recorded_total",
		Help: "Total point deductions recorded",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, alertsRaised, alertsAcked, itemsReported, deductions, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		alertsRaised:    alertsRaised,
		alertsAcked:     alertsAcked,
		itemsReported:   itemsReported,
		deductions:      deductions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordAlertRaised counts a new SOS alert.
func (m *MetricsService) RecordAlertRaised() {
	if m == nil {
		return
	}
	m.alertsRaised.Inc()
}

// RecordAlertAcknowledged counts an acknowledged SOS alert.
func (m *MetricsService) RecordAlertAcknowledged() {
	if m == nil {
		return
	}
	m.alertsAcked.Inc()
}

// RecordItemReported counts a lost-and-found intake by intent.
func (m *MetricsService) RecordItemReported(intent string) {
	if m == nil {
		return
	}
	m.itemsReported.WithLabelValues(intent).Inc()
}

// RecordDeduction counts a recorded point deduction.
func (m *MetricsService) RecordDeduction() {
	if m == nil {
		return
	}
	m.deductions.Inc()
}

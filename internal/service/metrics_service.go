package service

import (
	"net/http"
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
	decisionTotal   *prometheus.CounterVec
	submissionCaps  prometheus.Counter
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

	decisionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Access policy decisions by action, resource kind and outcome",
	}, []string{"action", "kind", "reason", "allowed"})

	submissionCaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "submission_cap_rejections_total",
		Help: "Submissions rejected because the per-assignment cap was reached",
	})

	registry.MustRegister(requestDuration, requestTotal, decisionTotal, submissionCaps)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		decisionTotal:   decisionTotal,
		submissionCaps:  submissionCaps,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := httpStatusLabel(status)
	s.requestDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, statusLabel).Inc()
}

// ObserveDecision implements authz.DecisionObserver.
func (s *MetricsService) ObserveDecision(action, kind, reason string, allowed bool) {
	allowedLabel := "false"
	if allowed {
		allowedLabel = "true"
		reason = ""
	}
	s.decisionTotal.WithLabelValues(action, kind, reason, allowedLabel).Inc()
}

// ObserveSubmissionCapRejection counts one rejected submission.
func (s *MetricsService) ObserveSubmissionCapRejection() {
	s.submissionCaps.Inc()
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

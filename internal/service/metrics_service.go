package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// MetricsService owns the process metric registry. A nil *MetricsService is
// valid; every method no-ops so services can run without metrics in tests.
type MetricsService struct {
	registry *prometheus.Registry

	httpDuration   *prometheus.HistogramVec
	httpTotal      *prometheus.CounterVec
	runsTotal      *prometheus.CounterVec
	oracleFailures prometheus.Counter
	editsTotal     *prometheus.CounterVec
	publishesTotal *prometheus.CounterVec
	exportsTotal   *prometheus.CounterVec
}

// NewMetricsService builds and registers the timetable metric set.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	s := &MetricsService{
		registry: registry,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method, path and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_generation_runs_total",
			Help: "Generation runs by result.",
		}, []string{"result"}),
		oracleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_oracle_failures_total",
			Help: "Oracle calls that returned an error or no result.",
		}),
		editsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_edits_total",
			Help: "Edit operations by kind and result.",
		}, []string{"op", "result"}),
		publishesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_publishes_total",
			Help: "Schedule publications by channel.",
		}, []string{"channel"}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_exports_total",
			Help: "Export renders by format and result.",
		}, []string{"format", "result"}),
	}

	registry.MustRegister(
		s.httpDuration,
		s.httpTotal,
		s.runsTotal,
		s.oracleFailures,
		s.editsTotal,
		s.publishesTotal,
		s.exportsTotal,
	)
	return s
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if s == nil {
		return
	}
	code := strconv.Itoa(status)
	s.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
	s.httpTotal.WithLabelValues(method, path, code).Inc()
}

// CountRun records a generation run outcome ("completed" or "failed").
func (s *MetricsService) CountRun(result string) {
	if s == nil {
		return
	}
	s.runsTotal.WithLabelValues(result).Inc()
}

// CountOracleFailure records one failed oracle call.
func (s *MetricsService) CountOracleFailure() {
	if s == nil {
		return
	}
	s.oracleFailures.Inc()
}

// CountEdit records an edit operation outcome.
func (s *MetricsService) CountEdit(op, result string) {
	if s == nil {
		return
	}
	s.editsTotal.WithLabelValues(op, result).Inc()
}

// CountPublish records one channel publication.
func (s *MetricsService) CountPublish(channel models.PublicationChannel) {
	if s == nil {
		return
	}
	s.publishesTotal.WithLabelValues(string(channel)).Inc()
}

// CountExport records an export render outcome.
func (s *MetricsService) CountExport(format, result string) {
	if s == nil {
		return
	}
	s.exportsTotal.WithLabelValues(format, result).Inc()
}

// Handler exposes the registry for the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

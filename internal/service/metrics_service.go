package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP, cache and scheduling collectors.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheLookups    *prometheus.CounterVec

	bookings      *prometheus.CounterVec
	enrollments   *prometheus.CounterVec
	occurrences   *prometheus.CounterVec
	charges       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	txDuration    *prometheus.HistogramVec
}

// NewMetricsService registers every collector on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facility_bookings_total",
		Help: "Booking operations by kind and outcome",
	}, []string{"kind", "outcome"})

	enrollments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facility_enrollments_total",
		Help: "Class enrollment operations by outcome",
	}, []string{"outcome"})

	occurrences := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facility_occurrences_total",
		Help: "Class occurrence generation and cancellation results",
	}, []string{"result"})

	charges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facility_charges_total",
		Help: "Charges opened and cancelled by reference type",
	}, []string{"reference_type", "action"})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "facility_notifications_total",
		Help: "Notification dispatch results",
	}, []string{"type", "result"})

	txDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "facility_transaction_duration_seconds",
		Help:    "Duration of scheduling transactions",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheLookups,
		bookings, enrollments, occurrences, charges, notifications, txDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheLookups:    cacheLookups,
		bookings:        bookings,
		enrollments:     enrollments,
		occurrences:     occurrences,
		charges:         charges,
		notifications:   notifications,
		txDuration:      txDuration,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveHTTPRequest records request latency and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup and whether it hit.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordBooking counts a booking operation outcome such as created, rejected or cancelled.
func (m *MetricsService) RecordBooking(kind, outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(kind, outcome).Inc()
}

// RecordEnrollment counts an enrollment outcome.
func (m *MetricsService) RecordEnrollment(outcome string) {
	if m == nil {
		return
	}
	m.enrollments.WithLabelValues(outcome).Inc()
}

// RecordGeneration counts occurrences created and candidates skipped by one run.
func (m *MetricsService) RecordGeneration(created, skipped int) {
	if m == nil {
		return
	}
	m.occurrences.WithLabelValues("created").Add(float64(created))
	m.occurrences.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordOccurrenceCancelled counts a cancelled occurrence.
func (m *MetricsService) RecordOccurrenceCancelled() {
	if m == nil {
		return
	}
	m.occurrences.WithLabelValues("cancelled").Inc()
}

// RecordCharge counts a charge opened or cancelled.
func (m *MetricsService) RecordCharge(referenceType, action string) {
	if m == nil {
		return
	}
	m.charges.WithLabelValues(referenceType, action).Inc()
}

// RecordNotification counts a notification delivery result.
func (m *MetricsService) RecordNotification(notificationType, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(notificationType, result).Inc()
}

// ObserveTransaction records how long a scheduling transaction held its locks.
func (m *MetricsService) ObserveTransaction(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.txDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

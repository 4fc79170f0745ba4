package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome метки результата операций с вместимостью
const (
	OutcomeSuccess   = "success"
	OutcomeExhausted = "exhausted"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

// Metrics набор prometheus-метрик сервиса
// Методы безопасно вызывать на nil: метрики выключены
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec
	DBOpenConns     prometheus.Gauge
	DBInUseConns    prometheus.Gauge
	DBIdleConns     prometheus.Gauge
	DBWaitCount     prometheus.Gauge

	CapacityOperationsTotal *prometheus.CounterVec
	CapacityUnitsTotal      *prometheus.CounterVec
	BookingTransitionsTotal *prometheus.CounterVec
	PaymentEventsTotal      *prometheus.CounterVec
}

// New создает метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики и регистрирует их в переданном реестре
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DBQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_queries_total",
			Help:        "Total number of database queries",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: labels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		DBOpenConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections",
			ConstLabels: labels,
		}),
		DBInUseConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: labels,
		}),
		DBIdleConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: labels,
		}),
		DBWaitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: labels,
		}),

		CapacityOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "capacity_operations_total",
			Help:        "Capacity ledger operations by kind and outcome",
			ConstLabels: labels,
		}, []string{"operation", "outcome"}),
		CapacityUnitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "capacity_units_total",
			Help:        "Capacity units committed or released",
			ConstLabels: labels,
		}, []string{"operation"}),
		BookingTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_transitions_total",
			Help:        "Booking state transitions by operation and resulting status",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
		PaymentEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "payment_events_total",
			Help:        "Payment collaborator events by type and result",
			ConstLabels: labels,
		}, []string{"type", "result"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.DBOpenConns,
		m.DBInUseConns,
		m.DBIdleConns,
		m.DBWaitCount,
		m.CapacityOperationsTotal,
		m.CapacityUnitsTotal,
		m.BookingTransitionsTotal,
		m.PaymentEventsTotal,
	)

	return m
}

// ObserveHTTPRequest фиксирует HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DBQueriesTotal.WithLabelValues(operation, status).Inc()
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncCapacityOperation фиксирует операцию с журналом вместимости (commit / release)
func (m *Metrics) IncCapacityOperation(operation, outcome string, units int) {
	if m == nil {
		return
	}
	m.CapacityOperationsTotal.WithLabelValues(operation, outcome).Inc()
	if outcome == OutcomeSuccess && units > 0 {
		m.CapacityUnitsTotal.WithLabelValues(operation).Add(float64(units))
	}
}

// IncBookingTransition фиксирует переход бронирования
func (m *Metrics) IncBookingTransition(operation, status string) {
	if m == nil {
		return
	}
	m.BookingTransitionsTotal.WithLabelValues(operation, status).Inc()
}

// IncPaymentEvent фиксирует обработку события платежного сервиса
func (m *Metrics) IncPaymentEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.PaymentEventsTotal.WithLabelValues(eventType, result).Inc()
}

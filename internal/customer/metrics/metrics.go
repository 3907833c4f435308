package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the customer module.
type Metrics struct {
	CustomersCreated  prometheus.Counter
	CustomersUpdated  prometheus.Counter
	CustomersDeleted  prometheus.Counter
	OperationDuration *prometheus.HistogramVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	CacheErrors       prometheus.Counter
	CacheBreakerOpen  prometheus.Gauge
}

// New creates a new Metrics instance with all customer metrics registered.
func New() *Metrics {
	return &Metrics{
		CustomersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerapi_customers_created_total",
			Help: "Total number of customers created",
		}),
		CustomersUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerapi_customers_updated_total",
			Help: "Total number of customers updated",
		}),
		CustomersDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerapi_customers_deleted_total",
			Help: "Total number of customers deleted, including bulk clears",
		}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "customerapi_customer_operation_duration_seconds",
			Help:    "Duration of customer service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerapi_customer_cache_hits_total",
			Help: "Customer lookups served from Redis",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerapi_customer_cache_misses_total",
			Help: "Customer lookups that fell through to the store",
		}),
		CacheErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerapi_customer_cache_errors_total",
			Help: "Redis errors seen by the customer cache",
		}),
		CacheBreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "customerapi_customer_cache_breaker_open",
			Help: "Customer cache circuit breaker state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) IncCreated() {
	if m == nil {
		return
	}
	m.CustomersCreated.Inc()
}

func (m *Metrics) IncUpdated() {
	if m == nil {
		return
	}
	m.CustomersUpdated.Inc()
}

func (m *Metrics) AddDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CustomersDeleted.Add(float64(n))
}

// ObserveOperation records the duration of op.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) IncCacheError() {
	if m == nil {
		return
	}
	m.CacheErrors.Inc()
}

func (m *Metrics) SetCacheBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CacheBreakerOpen.Set(1)
		return
	}
	m.CacheBreakerOpen.Set(0)
}

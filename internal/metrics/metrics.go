package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
)

// Metrics holds the Prometheus collectors for the directory.
type Metrics struct {
	CustomerWrites  *prometheus.CounterVec
	CatalogWrites   *prometheus.CounterVec
	SearchDuration  prometheus.Histogram
	EventsProcessed *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CustomerWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_directory_customer_writes_total",
			Help: "Customer create/update/delete operations by outcome",
		}, []string{"operation", "outcome"}),
		CatalogWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_directory_catalog_writes_total",
			Help: "Customer type create/update/delete operations by outcome",
		}, []string{"operation", "outcome"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "customer_directory_search_duration_seconds",
			Help:    "Latency of filtered customer searches",
			Buckets: prometheus.DefBuckets,
		}),
		EventsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_directory_events_processed_total",
			Help: "Customer lifecycle events handled by the event worker",
		}, []string{"type", "outcome"}),
	}
}

// Outcome maps an operation error to a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch appErrors.KindOf(err) {
	case appErrors.KindNotFound:
		return "not_found"
	case appErrors.KindDuplicateKey:
		return "duplicate"
	case appErrors.KindValidation:
		return "invalid"
	case appErrors.KindReferentialViolation:
		return "referenced"
	}
	return "error"
}

func (m *Metrics) ObserveCustomerWrite(op string, err error) {
	if m == nil {
		return
	}
	m.CustomerWrites.WithLabelValues(op, Outcome(err)).Inc()
}

func (m *Metrics) ObserveCatalogWrite(op string, err error) {
	if m == nil {
		return
	}
	m.CatalogWrites.WithLabelValues(op, Outcome(err)).Inc()
}

func (m *Metrics) ObserveSearch(seconds float64) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(seconds)
}

func (m *Metrics) ObserveEvent(eventType string, err error) {
	if m == nil {
		return
	}
	m.EventsProcessed.WithLabelValues(eventType, Outcome(err)).Inc()
}

package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	appErrors "github.com/unclebandit/customer-directory/internal/errors"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "not_found", Outcome(appErrors.NewNotFound("customer", "id", 1)))
	assert.Equal(t, "duplicate", Outcome(appErrors.NewDuplicateKey("customer", "email", "a@b.c")))
	assert.Equal(t, "invalid", Outcome(appErrors.NewFieldValidation("email", "is required")))
	assert.Equal(t, "referenced", Outcome(appErrors.NewReferentialViolation("customer type", "VIP", nil)))
	assert.Equal(t, "error", Outcome(errors.New("db down")))
}

func TestObserveCustomerWrite(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCustomerWrite("create", nil)
	m.ObserveCustomerWrite("create", nil)
	m.ObserveCustomerWrite("create", appErrors.NewDuplicateKey("customer", "email", "x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CustomerWrites.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CustomerWrites.WithLabelValues("create", "duplicate")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveCustomerWrite("create", nil)
		m.ObserveCatalogWrite("delete", nil)
		m.ObserveSearch(0.1)
		m.ObserveEvent("customer.created", nil)
	})
}

package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/customer-directory/internal/metrics"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/queue"
	"github.com/unclebandit/customer-directory/internal/repository"
	"github.com/unclebandit/customer-directory/internal/service"
)

type recordingSink struct {
	mu     sync.Mutex
	events []model.CustomerEvent
}

func (r *recordingSink) Sink(evt model.CustomerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *recordingSink) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func TestWorkerReceivesLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	q := queue.NewInMemoryQueue(nil)
	sink := &recordingSink{}
	w := service.NewWorker(q, "customer_events", sink.Sink, nil, nil)
	require.NoError(t, w.Start())

	store := repository.NewMemoryStore()
	_, err := service.NewCustomerTypeService(store).Create(ctx, model.CustomerTypeInput{Code: "VIP", Description: "VIP customer"})
	require.NoError(t, err)
	svc := service.NewCustomerService(store, service.WithEvents(q, "customer_events"))

	c, err := svc.Create(ctx, juan())
	require.NoError(t, err)
	q.Drain()
	_, err = svc.Update(ctx, c.ID, juan())
	require.NoError(t, err)
	q.Drain()
	require.NoError(t, svc.Delete(ctx, c.ID))
	q.Drain()

	// rejected writes publish nothing
	_, err = svc.Create(ctx, model.CustomerInput{})
	require.Error(t, err)
	q.Drain()

	assert.Equal(t, []model.EventType{
		model.EventCustomerCreated,
		model.EventCustomerUpdated,
		model.EventCustomerDeleted,
	}, sink.types())
	assert.Equal(t, c.ID, sink.events[0].CustomerID)
}

func TestWorkerRetriesFailingSink(t *testing.T) {
	q := queue.NewInMemoryQueue(nil)
	q.Backoff = time.Millisecond
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	calls := 0
	w := service.NewWorker(q, "t", func(model.CustomerEvent) error {
		calls++
		if calls == 1 {
			return errors.New("sink down")
		}
		return nil
	}, nil, m)
	require.NoError(t, w.Start())

	evt := model.CustomerEvent{Type: model.EventCustomerCreated, CustomerID: 7}
	require.NoError(t, q.Publish("t", evt))
	q.Drain()

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsProcessed.WithLabelValues("customer.created", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsProcessed.WithLabelValues("customer.created", "ok")))
}

func TestDecodeEvent(t *testing.T) {
	evt := model.CustomerEvent{Type: model.EventCustomerDeleted, CustomerID: 3, NationalID: "3-3"}
	body, err := json.Marshal(evt)
	require.NoError(t, err)

	got, err := service.DecodeEvent(body)
	require.NoError(t, err)
	assert.Equal(t, evt.CustomerID, got.CustomerID)
	assert.Equal(t, evt.Type, got.Type)

	got, err = service.DecodeEvent(&evt)
	require.NoError(t, err)
	assert.Equal(t, "3-3", got.NationalID)

	_, err = service.DecodeEvent([]byte(`{"customerId":1}`))
	assert.Error(t, err)
	_, err = service.DecodeEvent(42)
	assert.Error(t, err)
}

func TestWorkerDropsUndecodablePayload(t *testing.T) {
	called := false
	w := service.NewWorker(queue.NewInMemoryQueue(nil), "t", func(model.CustomerEvent) error {
		called = true
		return nil
	}, nil, nil)

	assert.NoError(t, w.Handle([]byte("not json")))
	assert.False(t, called)
}

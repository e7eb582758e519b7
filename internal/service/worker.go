package service

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/customer-directory/internal/metrics"
	"github.com/unclebandit/customer-directory/internal/model"
	"github.com/unclebandit/customer-directory/internal/queue"
)

// Worker consumes customer lifecycle events and hands each one to Sink.
// A Sink error is returned to the queue so it can retry the delivery.
type Worker struct {
	Queue   queue.Queue
	Topic   string
	Sink    func(evt model.CustomerEvent) error
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func NewWorker(q queue.Queue, topic string, sink func(evt model.CustomerEvent) error, logger *zap.Logger, m *metrics.Metrics) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Worker{Queue: q, Topic: topic, Sink: sink, Logger: logger, Metrics: m}
	if w.Sink == nil {
		w.Sink = LogSink(logger)
	}
	return w
}

// Start subscribes the worker to its topic.
func (w *Worker) Start() error {
	if err := w.Queue.Subscribe(w.Topic, w.Handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", w.Topic, err)
	}
	w.Logger.Info("event worker subscribed", zap.String("topic", w.Topic))
	return nil
}

// Handle processes one delivery. Payloads that cannot be decoded are dropped
// since retrying them can never succeed.
func (w *Worker) Handle(payload any) error {
	evt, err := DecodeEvent(payload)
	if err != nil {
		w.Logger.Error("dropping undecodable event", zap.Error(err))
		w.Metrics.ObserveEvent("unknown", err)
		return nil
	}
	err = w.Sink(evt)
	w.Metrics.ObserveEvent(string(evt.Type), err)
	if err != nil {
		w.Logger.Warn("event sink failed",
			zap.String("type", string(evt.Type)), zap.String("eventId", evt.ID.String()), zap.Error(err))
		return err
	}
	return nil
}

// DecodeEvent accepts the in-process form of an event or its JSON encoding
// as delivered by AMQP.
func DecodeEvent(payload any) (model.CustomerEvent, error) {
	switch p := payload.(type) {
	case model.CustomerEvent:
		return p, nil
	case *model.CustomerEvent:
		if p == nil {
			return model.CustomerEvent{}, fmt.Errorf("nil event")
		}
		return *p, nil
	case []byte:
		var evt model.CustomerEvent
		if err := json.Unmarshal(p, &evt); err != nil {
			return model.CustomerEvent{}, fmt.Errorf("decode event: %w", err)
		}
		if evt.Type == "" {
			return model.CustomerEvent{}, fmt.Errorf("event without type")
		}
		return evt, nil
	}
	return model.CustomerEvent{}, fmt.Errorf("unsupported payload %T", payload)
}

// LogSink writes each event to the structured log. It is the default audit
// trail when no other consumer is configured.
func LogSink(logger *zap.Logger) func(evt model.CustomerEvent) error {
	return func(evt model.CustomerEvent) error {
		logger.Info("customer event",
			zap.String("eventId", evt.ID.String()),
			zap.String("type", string(evt.Type)),
			zap.Int64("customerId", evt.CustomerID),
			zap.String("nationalId", evt.NationalID),
			zap.String("typeCode", evt.CustomerTypeCode),
			zap.Time("occurredAt", evt.OccurredAt),
		)
		return nil
	}
}

package service

import (
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unclebandit/customer-directory/internal/metrics"
	"github.com/unclebandit/customer-directory/internal/queue"
	"github.com/unclebandit/customer-directory/internal/repository"
)

// base carries the collaborators shared by every service. Each service gets
// its store handle explicitly; nothing is resolved at call time.
type base struct {
	store    repository.TxRunner
	logger   *zap.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	events   queue.Queue
	topic    string
	now      func() time.Time
}

type Option func(b *base)

func WithLogger(logger *zap.Logger) Option {
	return func(b *base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *base) {
		b.metrics = m
	}
}

func WithValidator(v *validator.Validate) Option {
	return func(b *base) {
		if v != nil {
			b.validate = v
		}
	}
}

// WithEvents publishes customer lifecycle events on topic after each commit.
func WithEvents(q queue.Queue, topic string) Option {
	return func(b *base) {
		b.events = q
		b.topic = topic
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

func newBase(store repository.TxRunner, opts []Option) base {
	b := base{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.validate == nil {
		b.validate = NewValidator()
	}
	return b
}

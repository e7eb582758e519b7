// cmd/worker/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unclebandit/customer-directory/internal/config"
	"github.com/unclebandit/customer-directory/internal/logger"
	"github.com/unclebandit/customer-directory/internal/metrics"
	"github.com/unclebandit/customer-directory/internal/queue"
	"github.com/unclebandit/customer-directory/internal/service"
)

// metricsAddr serves the worker's /metrics; the API owns APP_PORT.
const metricsAddr = ":9091"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.Mode).With(zap.String("component", "event-worker"))
	defer func() { _ = log.Sync() }()

	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the standalone worker")
	}
	q, err := queue.DialAMQP(cfg.AMQPURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() { _ = q.Close() }()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	go func() {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), ReadHeaderTimeout: 5 * time.Second}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, q, cfg.EventsTopic, log, m); err != nil {
		log.Fatal("worker failed", zap.Error(err))
	}
}

// run subscribes the event worker to topic and blocks until ctx ends.
func run(ctx context.Context, q queue.Queue, topic string, log *zap.Logger, m *metrics.Metrics) error {
	w := service.NewWorker(q, topic, service.LogSink(log), log, m)
	if err := w.Start(); err != nil {
		return err
	}
	log.Info("worker running, waiting for events", zap.String("topic", topic))
	<-ctx.Done()
	log.Info("worker stopping")
	return nil
}

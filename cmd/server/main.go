// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/unclebandit/customer-directory/internal/config"
	"github.com/unclebandit/customer-directory/internal/controller"
	"github.com/unclebandit/customer-directory/internal/db"
	"github.com/unclebandit/customer-directory/internal/handler"
	"github.com/unclebandit/customer-directory/internal/logger"
	"github.com/unclebandit/customer-directory/internal/metrics"
	"github.com/unclebandit/customer-directory/internal/queue"
	"github.com/unclebandit/customer-directory/internal/repository"
	"github.com/unclebandit/customer-directory/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.Mode)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	events, closeEvents := openEvents(cfg, log, m)
	defer closeEvents()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithEvents(events, cfg.EventsTopic),
	}
	customerService := service.NewCustomerService(store, opts...)
	searchService := service.NewSearchService(store, cfg.MaxPageSize, opts...)
	typeService := service.NewCustomerTypeService(store, opts...)

	router := controller.NewRouter(controller.RouterDeps{
		Customers: &controller.CustomerController{
			CustomerService: customerService,
			SearchService:   searchService,
			DefaultPageSize: cfg.DefaultPageSize,
			Logger:          log,
		},
		CustomerTypes: handler.NewCustomerTypeHandler(typeService, log),
		Health:        store,
		Gatherer:      reg,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.TxRunner, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("using in-memory store; data is lost on exit")
		return repository.NewMemoryStore(), func() {}, nil
	}

	conn, err := db.Open(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(conn, log); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
	}
	return repository.NewPostgresStore(conn), func() { _ = conn.Close() }, nil
}

// openEvents publishes to RabbitMQ when AMQP_URL is set. Otherwise events go
// to an in-process queue drained by a local worker that logs them.
func openEvents(cfg config.Config, log *zap.Logger, m *metrics.Metrics) (queue.Queue, func()) {
	if cfg.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.AMQPURL, log)
		if err == nil {
			return q, func() { _ = q.Close() }
		}
		log.Warn("RabbitMQ unavailable, falling back to in-process events", zap.Error(err))
	}

	q := queue.NewInMemoryQueue(log)
	w := service.NewWorker(q, cfg.EventsTopic, nil, log, m)
	if err := w.Start(); err != nil {
		log.Error("event worker not started", zap.Error(err))
	}
	return q, q.Drain
}

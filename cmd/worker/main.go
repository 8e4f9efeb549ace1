// Package main is the entry point for the posledger background worker.
// It relays SaleRegistered events from the outbox and expires idempotency keys.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"posledger/internal/config"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/internal/infrastructure/webhook"
	"posledger/pkg/logger"
)

func main() {
	envFile := flag.String("env", "", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if cfg.Database.Storage != config.StoragePostgres {
		log.Fatalw("worker requires STORAGE=postgres", "storage", cfg.Database.Storage)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting posledger worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = 4
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txOpts := postgres.DefaultTxOptions()
	txOpts.StatementTimeout = cfg.Database.StatementTimeout
	txm := postgres.NewTxManager(pool, txOpts)

	var handler postgres.OutboxHandler
	if cfg.Worker.WebhookURL != "" {
		handler = webhook.NewClient(cfg.Worker.WebhookURL, 10*time.Second)
	} else {
		log.Warn("WEBHOOK_URL not set, outbox events are only logged")
		handler = postgres.OutboxHandlerFunc(func(ctx context.Context, msg *postgres.OutboxMessage) error {
			logger.Info(ctx, "outbox event", "event_type", msg.EventType, "aggregate_id", msg.AggregateID)
			return nil
		})
	}

	w := &Worker{
		pool:        pool,
		relay:       postgres.NewOutboxRelay(txm, cfg.Worker.OutboxBatchSize, handler),
		idempotency: postgres.NewIdempotencyStore(txm, cfg.Idempotency.TTL),
		log:         log.WithComponent("worker"),
	}
	if err := w.Start(ctx, cfg.Worker); err != nil {
		log.Fatalw("failed to schedule jobs", "error", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()
	w.Stop()
	log.Info("worker stopped")
}

// Worker runs the scheduled background jobs against one database.
type Worker struct {
	cron        *cron.Cron
	pool        *postgres.Pool
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	log         *logger.Logger
}

// Start schedules the jobs. A job still running when its next tick fires is
// skipped rather than run twice.
func (w *Worker) Start(ctx context.Context, cfg config.WorkerConfig) error {
	w.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := w.cron.AddFunc(cfg.OutboxSchedule, func() { w.relayOutbox(ctx) }); err != nil {
		return fmt.Errorf("outbox schedule %q: %w", cfg.OutboxSchedule, err)
	}
	if _, err := w.cron.AddFunc(cfg.CleanupSchedule, func() { w.cleanup(ctx) }); err != nil {
		return fmt.Errorf("cleanup schedule %q: %w", cfg.CleanupSchedule, err)
	}

	w.log.Infow("jobs scheduled", "outbox", cfg.OutboxSchedule, "cleanup", cfg.CleanupSchedule)
	w.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
}

func (w *Worker) relayOutbox(ctx context.Context) {
	n, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Debugw("outbox batch delivered", "count", n)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("move to DLQ failed", "error", err)
	} else if n > 0 {
		w.log.Warnw("outbox messages moved to DLQ", "count", n)
	}

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}

	w.pool.LogPoolStats(ctx)
}

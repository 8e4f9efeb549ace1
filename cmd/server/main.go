// Package main is the entry point for the posledger API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posledger/internal/config"
	corenumerator "posledger/internal/core/numerator"
	"posledger/internal/core/tx"
	"posledger/internal/core/types"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/dashboard"
	"posledger/internal/domain/registers/stock"
	"posledger/internal/domain/sales"
	v1 "posledger/internal/infrastructure/http/v1"
	"posledger/internal/infrastructure/http/v1/handlers"
	"posledger/internal/infrastructure/http/v1/middleware"
	"posledger/internal/infrastructure/metrics"
	"posledger/internal/infrastructure/numerator"
	"posledger/internal/infrastructure/storage/memory"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/internal/infrastructure/storage/postgres/catalog_repo"
	"posledger/internal/infrastructure/storage/postgres/document_repo"
	"posledger/internal/infrastructure/storage/postgres/report_repo"
	"posledger/pkg/logger"
)

// backend is the storage-specific half of the wiring.
type backend struct {
	txManager   tx.Manager
	products    catalog.Repository
	sales       sales.Repository
	dashboard   dashboard.Repository
	counter     corenumerator.Counter
	checks      map[string]handlers.HealthCheck
	idempotency middleware.IdempotencyStore

	// postgres only
	outbox *postgres.OutboxPublisher
	audit  *postgres.AuditService
	close  func()
}

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

	ctx := context.Background()
	log.Infow("starting posledger server", "storage", cfg.Database.Storage)

	var b *backend
	switch cfg.Database.Storage {
	case config.StorageMemory:
		b, err = newMemoryBackend(ctx)
		if err != nil {
			log.Fatalw("failed to initialize memory storage", "error", err)
		}
	default:
		b, err = newPostgresBackend(ctx, cfg)
		if err != nil {
			log.Fatalw("failed to initialize postgres storage", "error", err)
		}
	}
	defer b.close()

	overflow, err := corenumerator.ParseOverflowPolicy(cfg.Numbering.Overflow)
	if err != nil {
		log.Fatalw("invalid numbering config", "error", err)
	}
	gen := numerator.New(b.counter, corenumerator.Config{
		Prefix:   cfg.Numbering.Prefix,
		PadWidth: cfg.Numbering.Width,
		Overflow: overflow,
	})
	if err := gen.Verify(ctx); err != nil {
		log.Fatalw("document sequence not ready, run cmd/seed first", "error", err)
	}

	policy := stock.RejectNegative
	if cfg.Stock.AllowNegative {
		policy = stock.AllowNegative
	}

	registrar := sales.NewRegistrar(sales.RegistrarConfig{
		TxManager: b.txManager,
		Stock:     stock.NewService(b.products, policy),
		Numerator: gen,
		Repo:      b.sales,
	})
	if b.outbox != nil {
		postgres.RegisterSaleHooks(registrar.Hooks(), b.outbox, b.audit)
	}

	checks := map[string]handlers.HealthCheck{"sequence": gen.Verify}
	for name, check := range b.checks {
		checks[name] = check
	}

	var m *metrics.Metrics
	var entry handlers.SaleRegistrar = registrar
	if cfg.Metrics.Enabled {
		m = metrics.New()
		entry = m.InstrumentRegistrar(registrar)
	}

	routerCfg := v1.RouterConfig{
		Logger:       log,
		Registrar:    entry,
		Queries:      sales.NewQueryService(b.sales, sales.WithNumberFormat(gen.Valid)),
		Dashboard:    dashboard.NewService(b.dashboard),
		Storage:      cfg.Database.Storage,
		HealthChecks: checks,
		Idempotency:  b.idempotency,
		Metrics:      m,
	}
	if b.audit != nil {
		routerCfg.Audit = b.audit
	}
	router := v1.NewRouter(routerCfg)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give in-flight registrations time to commit or roll back.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// newMemoryBackend starts from an empty sequence and a small demo catalog.
func newMemoryBackend(ctx context.Context) (*backend, error) {
	st := memory.New()
	err := st.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := st.Counter().Reset(ctx, 0); err != nil {
			return err
		}
		for _, p := range []catalog.Product{
			{Name: "Cola 0.5L", Stock: 100, Price: types.MustMoney("1.50")},
			{Name: "White bread", Stock: 40, Price: types.MustMoney("1.20")},
			{Name: "Milk 1L", Stock: 60, Price: types.MustMoney("1.10")},
		} {
			p.Active = true
			if err := st.Products().Create(ctx, &p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &backend{
		txManager: st,
		products:  st.Products(),
		sales:     st.Sales(),
		dashboard: st.Dashboard(),
		counter:   st.Counter(),
		close:     func() {},
	}, nil
}

func newPostgresBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	isolation, err := postgres.ParseIsolation(cfg.Database.Isolation)
	if err != nil {
		pool.Close()
		return nil, err
	}
	txOpts := postgres.DefaultTxOptions()
	txOpts.IsolationLevel = isolation
	txOpts.StatementTimeout = cfg.Database.StatementTimeout
	txm := postgres.NewTxManager(pool, txOpts)

	if err := postgres.Migrate(ctx, txm); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	audit, err := postgres.NewAuditService(txm)
	if err != nil {
		pool.Close()
		return nil, err
	}

	b := &backend{
		txManager: txm,
		products:  catalog_repo.NewProductRepo(txm),
		sales:     document_repo.NewSaleRepo(txm),
		dashboard: report_repo.NewDashboardRepo(txm),
		counter:   numerator.NewPostgresCounter(txm),
		checks: map[string]handlers.HealthCheck{
			"database": func(ctx context.Context) error { return pool.Ping(ctx) },
		},
		outbox: postgres.NewOutboxPublisher(txm),
		audit:  audit,
		close:  pool.Close,
	}
	if cfg.Idempotency.Enabled {
		b.idempotency = postgres.NewIdempotencyStore(txm, cfg.Idempotency.TTL)
	}
	return b, nil
}

// Package main provides a CLI tool that prepares a posledger database: it
// applies the schema, creates the document sequence row and optionally loads
// demo products.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"posledger/internal/config"
	"posledger/internal/core/apperror"
	"posledger/internal/core/types"
	"posledger/internal/infrastructure/numerator"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/internal/infrastructure/storage/postgres/catalog_repo"
	"posledger/pkg/logger"
)

// demoProducts are loaded when -demo is set and the catalog is empty.
var demoProducts = []struct {
	name  string
	stock int64
	price string
}{
	{"Cola 0.5L", 120, "1.50"},
	{"Mineral water 1L", 200, "0.90"},
	{"White bread", 40, "1.20"},
	{"Milk 1L", 60, "1.10"},
	{"Chocolate bar", 150, "2.35"},
	{"Coffee beans 250g", 25, "6.80"},
	{"Apples 1kg", 80, "2.10"},
	{"Eggs 10 pcs", 50, "2.90"},
}

func main() {
	envFile := flag.String("env", "", "optional .env file")
	startAt := flag.Int64("sequence", 0, "last issued document number for a newly created sequence row")
	demo := flag.Bool("demo", false, "load demo products into an empty catalog")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if cfg.Database.Storage != config.StoragePostgres {
		log.Fatal("seeding requires STORAGE=postgres")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool, postgres.DefaultTxOptions())

	if err := postgres.Migrate(ctx, txm); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	if err := seedSequence(ctx, txm, *startAt); err != nil {
		log.Fatalw("failed to seed document sequence", "error", err)
	}

	if *demo {
		if err := seedProducts(ctx, txm); err != nil {
			log.Fatalw("failed to seed demo products", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedSequence creates the counter row unless it already exists. An existing
// row is never reset, so re-running the seed cannot reissue numbers.
func seedSequence(ctx context.Context, txm *postgres.TxManager, startAt int64) error {
	counter := numerator.NewPostgresCounter(txm)

	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := counter.Current(ctx)
		switch {
		case err == nil:
			logger.Info(ctx, "document sequence already present", "last_number", current)
			return nil
		case apperror.IsSequenceMissing(err):
			if err := counter.Reset(ctx, startAt); err != nil {
				return err
			}
			logger.Info(ctx, "document sequence created", "last_number", startAt)
			return nil
		default:
			return err
		}
	})
}

func seedProducts(ctx context.Context, txm *postgres.TxManager) error {
	products := catalog_repo.NewProductRepo(txm)
	inserter := postgres.NewBatchInserter(txm)

	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		n, err := products.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info(ctx, "catalog not empty, demo products skipped", "products", n)
			return nil
		}

		rows := make([][]any, 0, len(demoProducts))
		for _, p := range demoProducts {
			price, err := types.NewMoneyFromString(p.price)
			if err != nil {
				return fmt.Errorf("demo product %q: %w", p.name, err)
			}
			rows = append(rows, []any{p.name, p.stock, price, true})
		}

		copied, err := inserter.CopyFromSlice(ctx, postgres.TableProducts, []string{"name", "stock", "price", "active"}, rows)
		if err != nil {
			return err
		}
		logger.Info(ctx, "demo products loaded", "count", copied)
		return nil
	})
}

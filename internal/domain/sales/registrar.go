package sales

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"posledger/internal/core/numerator"
	"posledger/internal/core/tx"
	"posledger/internal/domain"
	"posledger/internal/domain/registers/stock"
	"posledger/pkg/logger"
)

var tracer = otel.Tracer("posledger/sales")

// StockDecrementer is the part of the stock service the registrar needs.
type StockDecrementer interface {
	Decrement(ctx context.Context, movements []stock.Movement) ([]stock.Balance, error)
}

// Registrar turns a proposed sale into a stored one in a single unit of work:
// stock decrements, the document number and the sale aggregate all commit
// together or not at all.
type Registrar struct {
	txManager tx.Manager
	stock     StockDecrementer
	numbers   numerator.Generator
	repo      Repository
	hooks     *domain.HookRegistry[*Sale]
	now       func() time.Time
}

// RegistrarConfig wires the registrar's collaborators.
type RegistrarConfig struct {
	TxManager tx.Manager
	Stock     StockDecrementer
	Numerator numerator.Generator
	Repo      Repository

	// Clock defaults to time.Now in UTC.
	Clock func() time.Time
}

// NewRegistrar creates a registrar.
func NewRegistrar(cfg RegistrarConfig) *Registrar {
	clock := cfg.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &Registrar{
		txManager: cfg.TxManager,
		stock:     cfg.Stock,
		numbers:   cfg.Numerator,
		repo:      cfg.Repo,
		hooks:     domain.NewHookRegistry[*Sale](),
		now:       clock,
	}
}

// Hooks returns the hook registry. AfterCreate hooks run inside the
// registration transaction after the aggregate is inserted.
func (r *Registrar) Hooks() *domain.HookRegistry[*Sale] {
	return r.hooks
}

// Register stores the proposed sale and returns it with its ID, document
// number, total and lines. Any failure rolls the whole unit of work back and
// is returned as is; nothing is retried here.
func (r *Registrar) Register(ctx context.Context, p ProposedSale) (*Sale, error) {
	ctx, span := tracer.Start(ctx, "sales.Register")
	defer span.End()
	span.SetAttributes(attribute.Int("sale.lines", len(p.Lines)))

	if err := p.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var registered *Sale
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.stock.Decrement(ctx, p.movements()); err != nil {
			return err
		}

		// One timestamp for the sale and the sequence row.
		now := r.now()
		number, err := r.numbers.Next(ctx, now)
		if err != nil {
			return err
		}

		sale := NewSale(number, p, now)
		if err := r.repo.Create(ctx, sale); err != nil {
			return err
		}

		if err := r.hooks.Run(ctx, domain.AfterCreate, sale); err != nil {
			return err
		}

		registered = sale
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("sale.document_number", registered.DocumentNumber))
	logger.Info(ctx, "sale registered",
		"sale_id", registered.ID,
		"document_number", registered.DocumentNumber,
		"total", registered.Total.StringFixed(2),
		"lines", len(registered.Lines),
	)

	return registered, nil
}

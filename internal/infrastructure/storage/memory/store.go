// Package memory is an in-process record store with the same transactional
// contract as the PostgreSQL back end. Used by tests and by STORAGE=memory.
//
// One writer transaction runs at a time; the whole store is the lock
// granularity. A transaction works on a private copy of the committed state
// and publishes it on commit, so readers never observe partial work.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"posledger/internal/core/apperror"
	"posledger/internal/core/tx"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/sales"
	"posledger/pkg/logger"
)

// Operation names passed to the fault hook.
const (
	OpProductInsert     = "product.insert"
	OpProductGet        = "product.get"
	OpProductUpdate     = "product.update"
	OpSequenceIncrement = "sequence.increment"
	OpSequenceReset     = "sequence.reset"
	OpSaleInsert        = "sale.insert"
	OpCommit            = "commit"
)

var _ tx.Manager = (*Store)(nil)

// Sequence is the document sequence row.
type Sequence struct {
	LastNumber       int64
	LastRegisteredAt *time.Time
}

// State is a deep copy of the store contents.
type State struct {
	Products      map[int64]catalog.Product
	Sales         []sales.Sale
	Sequence      *Sequence
	NextProductID int64
	NextSaleID    int64
	NextLineID    int64
}

func newState() *State {
	return &State{
		Products:      make(map[int64]catalog.Product),
		Sales:         []sales.Sale{},
		NextProductID: 1,
		NextSaleID:    1,
		NextLineID:    1,
	}
}

func (s *State) clone() *State {
	out := &State{
		Products:      make(map[int64]catalog.Product, len(s.Products)),
		Sales:         make([]sales.Sale, len(s.Sales)),
		NextProductID: s.NextProductID,
		NextSaleID:    s.NextSaleID,
		NextLineID:    s.NextLineID,
	}
	for id, p := range s.Products {
		if p.CategoryID != nil {
			c := *p.CategoryID
			p.CategoryID = &c
		}
		out.Products[id] = p
	}
	for i, sale := range s.Sales {
		sale.Lines = slices.Clone(sale.Lines)
		out.Sales[i] = sale
	}
	if s.Sequence != nil {
		seq := *s.Sequence
		if seq.LastRegisteredAt != nil {
			at := *seq.LastRegisteredAt
			seq.LastRegisteredAt = &at
		}
		out.Sequence = &seq
	}
	return out
}

// Store is the in-memory record store.
type Store struct {
	// writer admits one transaction at a time; a channel so waiting honors ctx
	writer chan struct{}

	mu        sync.RWMutex
	committed *State

	faultMu sync.RWMutex
	fault   func(op string) error
}

// New creates an empty store. The sequence row does not exist until
// Counter().Reset is called.
func New() *Store {
	return &Store{
		writer:    make(chan struct{}, 1),
		committed: newState(),
	}
}

// SetFault installs a hook consulted before every mutating operation and
// before commit; a non-nil return is reported as a storage failure.
// Pass nil to remove it.
func (s *Store) SetFault(fn func(op string) error) {
	s.faultMu.Lock()
	s.fault = fn
	s.faultMu.Unlock()
}

func (s *Store) checkFault(op string) error {
	s.faultMu.RLock()
	fn := s.fault
	s.faultMu.RUnlock()
	if fn == nil {
		return nil
	}
	if err := fn(op); err != nil {
		return apperror.NewStorage(op, err)
	}
	return nil
}

// Snapshot returns a deep copy of the committed state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.committed.clone()
}

type txKey struct{}

type memTx struct {
	work *State
}

// RunInTransaction implements tx.Manager.
// A transaction already present in ctx is reused.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*memTx); ok {
		return fn(ctx)
	}

	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return apperror.NewStorage("begin transaction", ctx.Err())
	}
	defer func() { <-s.writer }()

	s.mu.RLock()
	t := &memTx{work: s.committed.clone()}
	s.mu.RUnlock()

	if err := s.execute(context.WithValue(ctx, txKey{}, t), fn); err != nil {
		return err
	}

	// A cancelled caller must not get a commit.
	if err := ctx.Err(); err != nil {
		return apperror.NewStorage("commit transaction", err)
	}
	if err := s.checkFault(OpCommit); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = t.work
	s.mu.Unlock()
	return nil
}

// execute runs fn; a panic discards the working copy and is re-raised once
// the writer slot is released by the caller's defer.
func (s *Store) execute(ctx context.Context, fn func(ctx context.Context) error) error {
	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "transaction aborted by panic", "panic", fmt.Sprint(p))
			panic(p)
		}
	}()
	return fn(ctx)
}

// working returns the transaction state from ctx.
func working(ctx context.Context) (*State, error) {
	t, ok := ctx.Value(txKey{}).(*memTx)
	if !ok {
		return nil, apperror.NewInternal(tx.ErrNoTransaction)
	}
	return t.work, nil
}

// write runs fn against the transaction state after consulting the fault hook.
func (s *Store) write(ctx context.Context, op string, fn func(st *State) error) error {
	st, err := working(ctx)
	if err != nil {
		return err
	}
	if err := s.checkFault(op); err != nil {
		return err
	}
	return fn(st)
}

// read runs fn against the transaction state when ctx carries one, otherwise
// against the committed state.
func (s *Store) read(ctx context.Context, fn func(st *State) error) error {
	if st, err := working(ctx); err == nil {
		return fn(st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.committed)
}

// Products returns the product repository view.
func (s *Store) Products() *ProductRepo { return &ProductRepo{store: s} }

// Sales returns the sale repository view.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{store: s} }

// Counter returns the document sequence view.
func (s *Store) Counter() *Counter { return &Counter{store: s} }

// Dashboard returns the dashboard aggregate view.
func (s *Store) Dashboard() *DashboardRepo { return &DashboardRepo{store: s} }

package graph

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
	"github.com/Mirraz/http-replay-sub000/internal/querysql"
	"github.com/Mirraz/http-replay-sub000/internal/store"
)

// Engine writes row graphs into a store and reads them back.
//
// The engine assumes exclusive ownership of the store's enum tables: the
// enum cache is never invalidated, because enum rows are never deleted or
// rewritten through the engine. Update only touches insert tables.
type Engine struct {
	store   *store.Store
	presets PresetSet
	cache   *enumCache
	logger  *slog.Logger
	metrics *Metrics

	cacheSize int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithEnumCacheSize sets the enum cache capacity. Zero disables the cache.
func WithEnumCacheSize(n int) EngineOption {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithMetrics sets the collectors the engine reports to.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine over s with the given table presets.
func New(s *store.Store, presets PresetSet, opts ...EngineOption) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("graph: nil store")
	}
	if err := presets.Validate(); err != nil {
		return nil, fmt.Errorf("graph: %w", err)
	}
	e := &Engine{
		store:     s,
		presets:   presets,
		cacheSize: DefaultEnumCacheSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	cache, err := newEnumCache(e.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("graph: enum cache: %w", err)
	}
	e.cache = cache
	return e, nil
}

// Presets returns the engine's table presets.
func (e *Engine) Presets() PresetSet {
	return e.presets
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Result is the outcome of a committed submission.
type Result struct {
	// Root is the id produced by the root literal. Null only when the root
	// is an enum literal with a null value.
	Root Ref

	// Side holds every side result registered during the submission.
	Side SideResults
}

// SideResults maps side result names to their ids. Results registered under
// the same name are concatenated in registration order.
type SideResults map[string][]int64

// Execute writes the literal graph rooted at lit in one transaction.
//
// Sibling columns resolve concurrently; a nested literal is always written
// before the row that references it. The transaction commits only after every
// column resolved and every registered side result settled. On any failure
// the transaction is rolled back and nothing is written.
//
// Cancelling ctx stops new statements from being issued and fails the
// submission; a statement already issued runs to completion first.
func (e *Engine) Execute(ctx context.Context, lit *Literal) (*Result, error) {
	if lit == nil {
		return nil, newShapeError("", "nil root literal")
	}
	start := time.Now()

	var (
		t      *txn
		result *Result
	)
	err := e.store.InTx(context.WithoutCancel(ctx), func(tx *sql.Tx) error {
		t = newTxn(ctx, e, tx)
		root, err := t.resolve(ctx, lit)
		if err != nil {
			return err
		}
		side, err := t.settle(ctx)
		if err != nil {
			return err
		}
		result = &Result{Root: root, Side: side}
		return nil
	})
	if err != nil {
		e.metrics.Submissions.WithLabelValues("failed").Inc()
		e.logger.Warn("graph submission failed", "table", lit.Table, "error", err)
		return nil, err
	}

	e.commitTxn(t)
	elapsed := time.Since(start)
	e.metrics.Submissions.WithLabelValues("ok").Inc()
	e.metrics.SubmitSeconds.Observe(elapsed.Seconds())
	e.logger.Debug("graph submitted",
		"table", lit.Table,
		"root", result.Root.ID,
		"side_results", len(result.Side),
		"duration", elapsed)
	return result, nil
}

// ObtainEnumID returns the id of the row in table whose valueCol equals
// value, inserting the row if none exists. A null value yields NullRef
// without touching the store. Runs in its own transaction.
func (e *Engine) ObtainEnumID(ctx context.Context, table, idCol, valueCol string, value ir.Value) (Ref, error) {
	if err := validateEnumTarget(table, idCol, valueCol); err != nil {
		return NullRef, err
	}
	if ir.IsNull(value) {
		return NullRef, nil
	}

	var (
		t   *txn
		ref Ref
	)
	err := e.store.InTx(context.WithoutCancel(ctx), func(tx *sql.Tx) error {
		t = newTxn(ctx, e, tx)
		var err error
		ref, err = t.obtainEnum(ctx, table, idCol, valueCol, value)
		return err
	})
	if err != nil {
		return NullRef, err
	}
	e.commitTxn(t)
	return ref, nil
}

// commitTxn publishes what a committed transaction learned: its enum ids
// and its row counts.
func (e *Engine) commitTxn(t *txn) {
	e.cache.promote(t.pending)
	for table, n := range t.written {
		e.metrics.RowsWritten.WithLabelValues(table).Add(float64(n))
	}
}

// Update sets primitive columns of an existing row of an insert table, in
// its own transaction. It returns ErrNotFound when no row has that id.
func (e *Engine) Update(ctx context.Context, table string, id int64, cols Columns) error {
	preset, err := e.presets.lookup(table)
	if err != nil {
		return err
	}
	if _, ok := preset.(InsertPreset); !ok {
		return newShapeError(table, "only insert tables can be updated")
	}
	if len(cols) == 0 {
		return newShapeError(table, "update sets no columns")
	}
	if err := checkColumns(&Literal{Table: table, Columns: cols}, preset); err != nil {
		return err
	}

	names := sortedColumns(cols)
	args := make([]any, 0, len(names)+1)
	for _, name := range names {
		p, ok := cols[name].(Primitive)
		if !ok {
			return newShapeError(table, "update of %s must be a primitive value", name)
		}
		args = append(args, ir.Arg(p.Value))
	}
	args = append(args, id)
	if err := ctx.Err(); err != nil {
		return err
	}

	query := querysql.Update(table, DefaultIDColumn, names)
	err = e.store.InTx(context.WithoutCancel(ctx), func(tx *sql.Tx) error {
		res, err := tx.ExecContext(context.WithoutCancel(ctx), query, args...)
		if err != nil {
			return newTableOpError(table, "update", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return newTableOpError(table, "update", err)
		}
		if n == 0 {
			return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.logger.Debug("row updated", "table", table, "id", id, "columns", names)
	return nil
}

// IDs returns the ids of rows in table whose filterCol equals filter, in
// ascending id order. An empty filterCol returns every id.
func (e *Engine) IDs(ctx context.Context, table, filterCol string, filter ir.Value) ([]int64, error) {
	idCol, err := e.presets.IDColumn(table)
	if err != nil {
		return nil, err
	}
	var args []any
	if filterCol != "" {
		if err := querysql.ValidateIdent(filterCol); err != nil {
			return nil, newShapeError(table, "%v", err)
		}
		args = append(args, ir.Arg(filter))
	}
	rows, err := e.store.DB().QueryContext(ctx, querysql.SelectIDs(table, idCol, filterCol), args...)
	if err != nil {
		return nil, newTableOpError(table, "select ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, newTableOpError(table, "scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, newTableOpError(table, "select ids", err)
	}
	return ids, nil
}

func validateEnumTarget(table, idCol, valueCol string) error {
	for _, name := range []string{table, idCol, valueCol} {
		if err := querysql.ValidateIdent(name); err != nil {
			return newShapeError(table, "%v", err)
		}
	}
	return nil
}

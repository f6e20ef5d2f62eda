package graph

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
	"github.com/Mirraz/http-replay-sub000/internal/querysql"
)

// txn is the state of one submission. All statements go through tx under
// mu: the store runs on a single connection and a *sql.Tx is not safe for
// concurrent use.
type txn struct {
	e   *Engine
	tx  *sql.Tx
	ctx context.Context

	mu      sync.Mutex
	pending map[string]int64 // enum ids first seen in this transaction
	written map[string]int

	sideMu  sync.Mutex
	side    []sideEntry
	spawned []*Promise
}

type sideEntry struct {
	name    string
	promise *Promise
}

// newTxn binds a submission to tx. ctx is the submission context, used by
// writes that outlive the column that spawned them.
func newTxn(ctx context.Context, e *Engine, tx *sql.Tx) *txn {
	return &txn{
		e:       e,
		tx:      tx,
		ctx:     ctx,
		pending: make(map[string]int64),
		written: make(map[string]int),
	}
}

// resolve writes lit and everything it references, returning lit's id.
func (t *txn) resolve(ctx context.Context, lit *Literal) (Ref, error) {
	if lit == nil {
		return NullRef, nil
	}
	preset, err := t.e.presets.lookup(lit.Table)
	if err != nil {
		return NullRef, err
	}
	if err := checkColumns(lit, preset); err != nil {
		return NullRef, err
	}

	var mu sync.Mutex
	values := make(map[string]ir.Value, len(lit.Columns))
	set := func(name string, v ir.Value) {
		mu.Lock()
		values[name] = v
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range sortedColumns(lit.Columns) {
		switch cv := lit.Columns[name].(type) {
		case nil:
			set(name, ir.Null{})
		case Primitive:
			if cv.Value == nil {
				set(name, ir.Null{})
			} else {
				set(name, cv.Value)
			}
		case *Literal:
			if cv == nil {
				set(name, ir.Null{})
				continue
			}
			g.Go(func() error {
				ref, err := t.resolve(gctx, cv)
				if err != nil {
					return err
				}
				set(name, ref.Value())
				return nil
			})
		case Deferred:
			if cv == nil {
				set(name, ir.Null{})
				continue
			}
			g.Go(func() error {
				sub := &SubExecutor{t: t, table: lit.Table, column: name}
				ref, err := cv(gctx, sub)
				if err != nil {
					return fmt.Errorf("%s.%s: %w", lit.Table, name, err)
				}
				set(name, ref.Value())
				return nil
			})
		default:
			return NullRef, newShapeError(lit.Table, "column %s: unknown value type %T", name, cv)
		}
	}
	if err := g.Wait(); err != nil {
		return NullRef, err
	}

	switch p := preset.(type) {
	case InsertPreset:
		return t.insert(ctx, lit.Table, p, values)
	case EnumPreset:
		return t.obtainEnum(ctx, lit.Table, p.IDColumn, p.ValueColumn, values[p.ValueColumn])
	default:
		return NullRef, newShapeError(lit.Table, "unknown preset type %T", preset)
	}
}

func (t *txn) insert(ctx context.Context, table string, p InsertPreset, values map[string]ir.Value) (Ref, error) {
	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, col := range p.Columns {
		if v, ok := values[col]; ok {
			cols = append(cols, col)
			args = append(args, ir.Arg(v))
		}
	}
	query := querysql.Insert(table, cols)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return NullRef, err
	}
	res, err := t.tx.ExecContext(context.WithoutCancel(ctx), query, args...)
	if err != nil {
		return NullRef, newTableOpError(table, "insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return NullRef, newTableOpError(table, "insert id", err)
	}
	t.written[table]++
	return RefTo(id), nil
}

// settle waits for every spawned write and side result, including ones
// registered while waiting.
func (t *txn) settle(ctx context.Context) (SideResults, error) {
	out := SideResults{}
	var sideDone, spawnedDone int
	for {
		t.sideMu.Lock()
		side := t.side[sideDone:]
		spawned := t.spawned[spawnedDone:]
		t.sideMu.Unlock()
		if len(side) == 0 && len(spawned) == 0 {
			return out, nil
		}

		for _, p := range spawned {
			if _, err := p.Wait(ctx); err != nil {
				return nil, err
			}
		}
		for _, s := range side {
			ids, err := s.promise.Wait(ctx)
			if err != nil {
				return nil, fmt.Errorf("side result %s: %w", s.name, err)
			}
			if out[s.name] == nil {
				out[s.name] = []int64{}
			}
			out[s.name] = append(out[s.name], ids...)
		}
		sideDone += len(side)
		spawnedDone += len(spawned)
	}
}

func (t *txn) addSide(name string, p *Promise) {
	t.sideMu.Lock()
	defer t.sideMu.Unlock()
	t.side = append(t.side, sideEntry{name: name, promise: p})
}

func (t *txn) track(p *Promise) {
	t.sideMu.Lock()
	defer t.sideMu.Unlock()
	t.spawned = append(t.spawned, p)
}

func checkColumns(lit *Literal, preset TablePreset) error {
	switch p := preset.(type) {
	case InsertPreset:
		for name := range lit.Columns {
			if !slices.Contains(p.Columns, name) {
				return newShapeError(lit.Table, "undeclared column %s", name)
			}
		}
	case EnumPreset:
		for name := range lit.Columns {
			if name != p.ValueColumn {
				return newShapeError(lit.Table, "enum literal may only set %s, got %s", p.ValueColumn, name)
			}
		}
	}
	return nil
}

func sortedColumns(cols Columns) []string {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

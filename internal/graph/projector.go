package graph

import (
	"context"
	"fmt"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
	"github.com/Mirraz/http-replay-sub000/internal/querysql"
	"github.com/Mirraz/http-replay-sub000/internal/store"
)

// JoinSpec describes which references of a row to expand when loading it.
// Refs keys are foreign-key columns of the row; Lists keys are names for the
// expanded lists whose head is the row itself.
type JoinSpec struct {
	Refs  map[string]Join
	Lists map[string]ListJoin
}

// Join expands one reference into a row of Table, itself shaped by Shape.
type Join struct {
	Table string
	Shape JoinSpec
}

// ListJoin expands an association table into the ordered elements of a list.
type ListJoin struct {
	Table  string // association table
	Parent string // column referencing the list head
	Child  string // column referencing the element
	Elem   Join
}

// Row is a loaded row with its expanded references.
type Row struct {
	Table   string            `json:"table"`
	ID      int64             `json:"id"`
	Columns ir.ValueMap       `json:"columns"`
	Refs    map[string]*Row   `json:"refs,omitempty"`
	Lists   map[string][]*Row `json:"lists,omitempty"`
}

// Value returns a column value, or Null if the row has no such column.
func (r *Row) Value(col string) ir.Value {
	if v, ok := r.Columns[col]; ok {
		return v
	}
	return ir.Null{}
}

// Int returns an integer column, or 0.
func (r *Row) Int(col string) int64 {
	n, _ := ir.AsInt(r.Value(col))
	return n
}

// Bool returns an integer column as a boolean.
func (r *Row) Bool(col string) bool {
	return r.Int(col) != 0
}

// Text returns a text column, or "".
func (r *Row) Text(col string) string {
	s, _ := ir.AsText(r.Value(col))
	return s
}

// Blob returns a blob column, or nil.
func (r *Row) Blob(col string) []byte {
	b, _ := ir.AsBlob(r.Value(col))
	return b
}

// Ref returns an expanded reference, nil when the reference is null.
func (r *Row) Ref(col string) *Row {
	return r.Refs[col]
}

// List returns an expanded list.
func (r *Row) List(name string) []*Row {
	return r.Lists[name]
}

// Load reads the row of table keyed by id and expands it per shape.
// Null references expand to nil; list elements come back in their
// original order. A missing row is reported as ErrNotFound.
func (e *Engine) Load(ctx context.Context, table string, id int64, shape JoinSpec) (*Row, error) {
	row, err := e.loadRow(ctx, e.store.DB(), table, id, shape)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("graph loaded", "table", table, "id", id)
	return row, nil
}

// loadRow reads one row and recurses into its joins. Every result set is
// drained and closed before the next query: the store has one connection.
func (e *Engine) loadRow(ctx context.Context, q store.Querier, table string, id int64, shape JoinSpec) (*Row, error) {
	idCol, err := e.presets.IDColumn(table)
	if err != nil {
		return nil, err
	}

	columns, err := selectRow(ctx, q, table, idCol, id)
	if err != nil {
		return nil, err
	}
	row := &Row{Table: table, ID: id, Columns: columns}

	if len(shape.Refs) > 0 {
		row.Refs = make(map[string]*Row, len(shape.Refs))
	}
	for col, join := range shape.Refs {
		v, ok := columns[col]
		if !ok {
			return nil, newShapeError(table, "join on unknown column %s", col)
		}
		if ir.IsNull(v) {
			row.Refs[col] = nil
			continue
		}
		refID, ok := ir.AsInt(v)
		if !ok {
			return nil, newShapeError(table, "column %s holds %T, not a reference", col, v)
		}
		child, err := e.loadRow(ctx, q, join.Table, refID, join.Shape)
		if err != nil {
			return nil, err
		}
		row.Refs[col] = child
	}

	if len(shape.Lists) > 0 {
		row.Lists = make(map[string][]*Row, len(shape.Lists))
	}
	for name, lj := range shape.Lists {
		childIDs, err := e.listChildren(ctx, q, lj, id)
		if err != nil {
			return nil, err
		}
		elems := make([]*Row, 0, len(childIDs))
		for _, cid := range childIDs {
			elem, err := e.loadRow(ctx, q, lj.Elem.Table, cid, lj.Elem.Shape)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
		row.Lists[name] = elems
	}
	return row, nil
}

func selectRow(ctx context.Context, q store.Querier, table, idCol string, id int64) (ir.ValueMap, error) {
	rows, err := q.QueryContext(ctx, querysql.SelectRow(table, idCol), id)
	if err != nil {
		return nil, newTableOpError(table, "select", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, newTableOpError(table, "select columns", err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, newTableOpError(table, "select", err)
		}
		return nil, fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}

	raw := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, newTableOpError(table, "scan", err)
	}

	columns := make(ir.ValueMap, len(names))
	for i, name := range names {
		v, err := ir.FromDriver(raw[i])
		if err != nil {
			return nil, newTableOpError(table, "column "+name, err)
		}
		columns[name] = v
	}
	return columns, nil
}

func (e *Engine) listChildren(ctx context.Context, q store.Querier, lj ListJoin, parentID int64) ([]int64, error) {
	idCol, err := e.presets.IDColumn(lj.Table)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, querysql.SelectChildren(lj.Table, idCol, lj.Parent, lj.Child), parentID)
	if err != nil {
		return nil, newTableOpError(lj.Table, "select children", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var assocID, childID int64
		if err := rows.Scan(&assocID, &childID); err != nil {
			return nil, newTableOpError(lj.Table, "scan child", err)
		}
		ids = append(ids, childID)
	}
	if err := rows.Err(); err != nil {
		return nil, newTableOpError(lj.Table, "select children", err)
	}
	return ids, nil
}

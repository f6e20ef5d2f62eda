package graph

import (
	"context"
	"fmt"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
)

// Ref is the id of a stored row, or null.
type Ref struct {
	ID    int64
	Valid bool
}

// NullRef is the null reference.
var NullRef = Ref{}

// RefTo returns a valid reference to id.
func RefTo(id int64) Ref {
	return Ref{ID: id, Valid: true}
}

// Value returns the reference as a column value: Int for a valid ref, Null otherwise.
func (r Ref) Value() ir.Value {
	if !r.Valid {
		return ir.Null{}
	}
	return ir.Int(r.ID)
}

// ColumnValue is a sealed interface for the value bound to one column of a
// Literal. Only Primitive, *Literal, and Deferred implement it.
type ColumnValue interface {
	columnValue() // Sealed - only these types implement it
}

// Primitive is a scalar column value written as-is.
type Primitive struct {
	Value ir.Value
}

func (Primitive) columnValue() {}

// Deferred produces a reference once the graph is executing. The function
// receives a SubExecutor bound to the same transaction and may submit further
// literals, await late-arriving data, or register side results.
type Deferred func(ctx context.Context, sub *SubExecutor) (Ref, error)

func (Deferred) columnValue() {}

func (*Literal) columnValue() {}

// Columns maps column names to their values.
type Columns map[string]ColumnValue

// Literal is one node of a row graph: a table name and its column values.
// Nested literals are written first and replaced by the id of the row they
// produce.
type Literal struct {
	Table   string
	Columns Columns
}

// NewLiteral returns a literal for table. A nil cols is an empty row.
func NewLiteral(table string, cols Columns) *Literal {
	if cols == nil {
		cols = Columns{}
	}
	return &Literal{Table: table, Columns: cols}
}

// Null returns a null column value.
func Null() ColumnValue { return Primitive{Value: ir.Null{}} }

// Bool returns a boolean column value.
func Bool(b bool) ColumnValue { return Primitive{Value: ir.Bool(b)} }

// Int returns an integer column value.
func Int(n int64) ColumnValue { return Primitive{Value: ir.Int(n)} }

// Real returns a real column value.
func Real(f float64) ColumnValue { return Primitive{Value: ir.Real(f)} }

// Text returns a text column value.
func Text(s string) ColumnValue { return Primitive{Value: ir.Text(s)} }

// Blob returns a blob column value.
func Blob(b []byte) ColumnValue { return Primitive{Value: ir.Blob(b)} }

// Value wraps an ir.Value.
func Value(v ir.Value) ColumnValue { return Primitive{Value: v} }

// RefValue returns a column value holding the reference's id, or null.
func RefValue(r Ref) ColumnValue { return Primitive{Value: r.Value()} }

// OptionalText returns Text(s), or Null when s is empty.
func OptionalText(s string) ColumnValue {
	if s == "" {
		return Null()
	}
	return Text(s)
}

// ParseLiteral builds a Literal from its map form: exactly one key naming the
// table, mapped to the row's columns. Column values may be nil, bool, integer
// and float kinds, string, []byte, ir.Value, ColumnValue, a nested map form,
// or a Deferred-shaped function.
func ParseLiteral(raw map[string]map[string]any) (*Literal, error) {
	if len(raw) != 1 {
		return nil, newShapeError("", "literal must name exactly one table, got %d", len(raw))
	}
	for table, cols := range raw {
		lit := NewLiteral(table, make(Columns, len(cols)))
		for name, v := range cols {
			cv, err := toColumnValue(v)
			if err != nil {
				return nil, newShapeError(table, "column %s: %v", name, err)
			}
			lit.Columns[name] = cv
		}
		return lit, nil
	}
	panic("unreachable")
}

func toColumnValue(v any) (ColumnValue, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case ColumnValue:
		return val, nil
	case ir.Value:
		return Value(val), nil
	case func(context.Context, *SubExecutor) (Ref, error):
		return Deferred(val), nil
	case map[string]map[string]any:
		return ParseLiteral(val)
	case map[string]any:
		// Decoded JSON/YAML produces untyped nested maps.
		nested := make(map[string]map[string]any, len(val))
		for table, cols := range val {
			colMap, ok := cols.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("nested literal %s: expected column map, got %T", table, cols)
			}
			nested[table] = colMap
		}
		return ParseLiteral(nested)
	case Ref:
		return RefValue(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int8:
		return Int(int64(val)), nil
	case int16:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(int64(val)), nil
	case uint16:
		return Int(int64(val)), nil
	case uint32:
		return Int(int64(val)), nil
	case float32:
		return Real(float64(val)), nil
	case float64:
		return Real(val), nil
	case string:
		return Text(val), nil
	case []byte:
		return Blob(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

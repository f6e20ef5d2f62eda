package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_SetsColumns(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Execute(ctx, NewLiteral("table01", Columns{
		"value": Text("before"),
		"flag":  Bool(false),
	}))
	require.NoError(t, err)

	require.NoError(t, e.Update(ctx, "table01", res.Root.ID, Columns{"flag": Bool(true)}))

	row, err := e.Load(ctx, "table01", res.Root.ID, JoinSpec{})
	require.NoError(t, err)
	assert.True(t, row.Bool("flag"))
	assert.Equal(t, "before", row.Text("value"))
}

func TestUpdate_MissingRow(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.Update(context.Background(), "table01", 42, Columns{"flag": Bool(true)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_Rejected(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()
	res, err := e.Execute(ctx, item("x"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		table string
		cols  Columns
	}{
		{"enum table", "names", Columns{"value": Text("y")}},
		{"undeclared table", "nowhere", Columns{"value": Text("y")}},
		{"no columns", "table01", Columns{}},
		{"undeclared column", "table01", Columns{"color": Text("red")}},
		{"nested literal", "table01", Columns{"value": item("nested")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Update(ctx, tt.table, res.Root.ID, tt.cols)
			require.Error(t, err)
			assert.True(t, IsShapeViolation(err), "got %v", err)
		})
	}
	assert.Equal(t, 1, countRows(t, s, "table01"))
}

package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
)

func TestLoad_NotFound(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Load(context.Background(), "table01", 42, JoinSpec{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLoad_UndeclaredTable(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Load(context.Background(), "nowhere", 1, JoinSpec{})
	require.Error(t, err)
	assert.True(t, IsShapeViolation(err))
}

func TestLoad_JoinOnUnknownColumn(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Execute(ctx, item("a"))
	require.NoError(t, err)

	_, err = e.Load(ctx, "table01", res.Root.ID, JoinSpec{
		Refs: map[string]Join{"missing_id": {Table: "table02"}},
	})
	require.Error(t, err)
	assert.True(t, IsShapeViolation(err))
}

func TestLoad_EmptyList(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Execute(ctx, NewLiteral("holders", Columns{
		"list_id": OrderedList(testList, "", nil),
	}))
	require.NoError(t, err)

	row, err := e.Load(ctx, "holders", res.Root.ID, JoinSpec{
		Refs: map[string]Join{
			"list_id": {Table: "lists", Shape: JoinSpec{Lists: map[string]ListJoin{
				"entries": testList.Join(Join{Table: "table01"}),
			}}},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, row.Ref("list_id"))
	assert.Empty(t, row.Ref("list_id").List("entries"))
}

func TestLoad_ListsAreScopedToTheirHead(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := e.Execute(ctx, NewLiteral("holders", Columns{
		"list_id": OrderedList(testList, "", []*Literal{item("a1"), item("a2")}),
	}))
	require.NoError(t, err)
	second, err := e.Execute(ctx, NewLiteral("holders", Columns{
		"list_id": OrderedList(testList, "", []*Literal{item("b1")}),
	}))
	require.NoError(t, err)

	shape := JoinSpec{Refs: map[string]Join{
		"list_id": {Table: "lists", Shape: JoinSpec{Lists: map[string]ListJoin{
			"entries": testList.Join(Join{Table: "table01"}),
		}}},
	}}

	row, err := e.Load(ctx, "holders", first.Root.ID, shape)
	require.NoError(t, err)
	assert.Len(t, row.Ref("list_id").List("entries"), 2)

	row, err = e.Load(ctx, "holders", second.Root.ID, shape)
	require.NoError(t, err)
	entries := row.Ref("list_id").List("entries")
	require.Len(t, entries, 1)
	assert.Equal(t, "b1", entries[0].Text("value"))
}

func TestRow_MissingColumnAccessors(t *testing.T) {
	row := &Row{Table: "t", ID: 1, Columns: ir.ValueMap{}}

	assert.True(t, ir.IsNull(row.Value("nope")))
	assert.Equal(t, int64(0), row.Int("nope"))
	assert.Equal(t, "", row.Text("nope"))
	assert.Nil(t, row.Blob("nope"))
	assert.False(t, row.Bool("nope"))
	assert.Nil(t, row.Ref("nope"))
	assert.Nil(t, row.List("nope"))
}

func TestRow_MarshalJSON(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := e.Execute(ctx, NewLiteral("table02", Columns{
		"table01_id": NewLiteral("table01", Columns{
			"value":   Text("v"),
			"payload": Blob([]byte("hi")),
		}),
		"note": Null(),
	}))
	require.NoError(t, err)

	row, err := e.Load(ctx, "table02", res.Root.ID, JoinSpec{
		Refs: map[string]Join{"table01_id": {Table: "table01"}},
	})
	require.NoError(t, err)

	data, err := json.Marshal(row)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "table02", decoded["table"])

	cols := decoded["columns"].(map[string]any)
	assert.Nil(t, cols["note"])

	refs := decoded["refs"].(map[string]any)
	inner := refs["table01_id"].(map[string]any)["columns"].(map[string]any)
	assert.Equal(t, "v", inner["value"])
	assert.Equal(t, "aGk=", inner["payload"])
}

func TestIDs(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	var want []int64
	for _, note := range []string{"keep", "skip", "keep"} {
		res, err := e.Execute(ctx, NewLiteral("table02", Columns{"note": Text(note)}))
		require.NoError(t, err)
		if note == "keep" {
			want = append(want, res.Root.ID)
		}
	}

	got, err := e.IDs(ctx, "table02", "note", ir.Text("keep"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	all, err := e.IDs(ctx, "table02", "", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Mirraz/http-replay-sub000/internal/store"
)

const testSchema = `
CREATE TABLE names (
    id INTEGER PRIMARY KEY,
    value TEXT NOT NULL UNIQUE
);
CREATE TABLE table01 (
    id INTEGER PRIMARY KEY,
    value TEXT,
    weight REAL,
    payload BLOB,
    flag INTEGER
);
CREATE TABLE table02 (
    id INTEGER PRIMARY KEY,
    table01_id INTEGER REFERENCES table01(id),
    name_id INTEGER REFERENCES names(id),
    note TEXT
);
CREATE TABLE empties (
    id INTEGER PRIMARY KEY
);
CREATE TABLE lists (
    id INTEGER PRIMARY KEY
);
CREATE TABLE list_entries (
    id INTEGER PRIMARY KEY,
    parent_id INTEGER NOT NULL REFERENCES lists(id),
    child_id INTEGER NOT NULL REFERENCES table01(id)
);
CREATE TABLE holders (
    id INTEGER PRIMARY KEY,
    list_id INTEGER REFERENCES lists(id)
);
`

var testList = ListSpec{
	Head:   "lists",
	Assoc:  "list_entries",
	Parent: "parent_id",
	Child:  "child_id",
}

func testPresets() PresetSet {
	return PresetSet{
		"names":        EnumPreset{IDColumn: "id", ValueColumn: "value"},
		"table01":      InsertPreset{Columns: []string{"value", "weight", "payload", "flag"}},
		"table02":      InsertPreset{Columns: []string{"table01_id", "name_id", "note"}},
		"empties":      InsertPreset{},
		"lists":        InsertPreset{},
		"list_entries": InsertPreset{Columns: []string{"parent_id", "child_id"}},
		"holders":      InsertPreset{Columns: []string{"list_id"}},
	}
}

// newTestEngine opens a temp store with the test tables and an engine over it.
func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *store.Store) {
	t.Helper()
	return newTestEngineAt(t, filepath.Join(t.TempDir(), "graph.db"), opts...)
}

// newTestEngineAt is newTestEngine with a caller-chosen database path.
func newTestEngineAt(t *testing.T, path string, opts ...EngineOption) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.DB().Exec(testSchema)
	require.NoError(t, err)

	e, err := New(s, testPresets(), opts...)
	require.NoError(t, err)
	return e, s
}

func countRows(t *testing.T, s *store.Store, table string) int {
	t.Helper()
	var n int
	err := s.DB().QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}

func item(value string) *Literal {
	return NewLiteral("table01", Columns{"value": Text(value)})
}

func permutations(in []string) [][]string {
	if len(in) <= 1 {
		return [][]string{append([]string(nil), in...)}
	}
	var out [][]string
	for i := range in {
		rest := make([]string, 0, len(in)-1)
		rest = append(rest, in[:i]...)
		rest = append(rest, in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]string{in[i]}, p...))
		}
	}
	return out
}

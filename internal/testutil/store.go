package testutil

import (
	"path/filepath"
	"testing"

	"github.com/Mirraz/http-replay-sub000/internal/store"
)

// TempStore opens a store in a per-test temp directory and closes it on cleanup.
func TempStore(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "capture.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

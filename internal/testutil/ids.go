package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// SequentialIDs generates deterministic session UUIDs for tests.
//
// The n-th call to Next returns a version-7 shaped UUID whose last eight
// bytes hold n, so the same scenario always produces the same identifiers.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequentialIDs creates a generator whose first UUID has sequence 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Next returns the next UUID.
func (g *SequentialIDs) Next() uuid.UUID {
	g.mu.Lock()
	g.seq++
	n := g.seq
	g.mu.Unlock()

	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], n)
	id[6] = 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// Reset restarts the sequence. The next call to Next returns sequence 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

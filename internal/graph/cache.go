package graph

import (
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/Mirraz/http-replay-sub000/internal/ir"
)

// DefaultEnumCacheSize is the number of enum ids kept in memory.
const DefaultEnumCacheSize = 4096

// enumCache maps enum values to committed row ids. A zero-size cache is
// disabled and always misses.
type enumCache struct {
	lru *lru.Cache
}

func newEnumCache(size int) (*enumCache, error) {
	if size <= 0 {
		return &enumCache{}, nil
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &enumCache{lru: c}, nil
}

func (c *enumCache) get(key string) (int64, bool) {
	if c.lru == nil {
		return 0, false
	}
	v, ok := c.lru.Get(key)
	if !ok {
		return 0, false
	}
	return v.(int64), true
}

// promote adds ids that became durable with a commit.
func (c *enumCache) promote(committed map[string]int64) {
	if c.lru == nil {
		return
	}
	for key, id := range committed {
		c.lru.Add(key, id)
	}
}

func (c *enumCache) len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

func enumKey(table, idCol, valueCol string, value ir.Value) string {
	var b strings.Builder
	b.WriteString(table)
	b.WriteByte(0)
	b.WriteString(idCol)
	b.WriteByte(0)
	b.WriteString(valueCol)
	b.WriteByte(0)
	b.WriteString(ir.Key(value))
	return b.String()
}

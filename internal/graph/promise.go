package graph

import (
	"context"
	"sync"
)

// Promise is a list of ids that becomes available later. It is resolved or
// rejected exactly once; later calls are ignored.
type Promise struct {
	once sync.Once
	done chan struct{}
	ids  []int64
	err  error
}

// NewPromise returns an unresolved Promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// Resolved returns a Promise already resolved with ids.
func Resolved(ids ...int64) *Promise {
	p := NewPromise()
	p.Resolve(ids...)
	return p
}

// Resolve sets the promised ids.
func (p *Promise) Resolve(ids ...int64) {
	p.once.Do(func() {
		p.ids = append([]int64(nil), ids...)
		close(p.done)
	})
}

// Reject fails the promise with err.
func (p *Promise) Reject(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed once the promise is resolved or rejected.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the promise settles or ctx is done.
func (p *Promise) Wait(ctx context.Context) ([]int64, error) {
	select {
	case <-p.done:
		return p.ids, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromise_ResolveOnce(t *testing.T) {
	p := NewPromise()
	p.Resolve(1, 2)
	p.Resolve(3)
	p.Reject(errors.New("ignored"))

	ids, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestPromise_Reject(t *testing.T) {
	boom := errors.New("boom")
	p := NewPromise()
	p.Reject(boom)

	_, err := p.Wait(context.Background())
	assert.ErrorIs(t, err, boom)

	select {
	case <-p.Done():
	default:
		t.Fatal("Done() not closed after Reject")
	}
}

func TestPromise_WaitHonoursContext(t *testing.T) {
	p := NewPromise()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolved(t *testing.T) {
	ids, err := Resolved().Wait(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

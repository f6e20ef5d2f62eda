package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
)

// InFlight is an exchange whose response and cache entry may arrive after
// the request. Commit waits for the remaining parts, or for the session to
// be interrupted, and then writes the whole exchange in one transaction; a
// part still missing when the session is interrupted is stored as null.
// Nothing touches the store while Commit waits, so other exchanges commit
// in the meantime.
//
// Security info is known once the connection is up, so it must be set
// before Commit.
type InFlight struct {
	r   *Recorder
	s   *Session
	req Request

	mu     sync.Mutex
	secRec *secinfo.TransportSecurityInfo
	secRaw []byte

	response *part[*Response]
	cache    *part[*CacheEntry]
}

// Begin starts an exchange for req in session s.
func (r *Recorder) Begin(s *Session, req Request) *InFlight {
	return &InFlight{
		r:        r,
		s:        s,
		req:      req,
		response: newPart[*Response](),
		cache:    newPart[*CacheEntry](),
	}
}

// SetSecurityInfo sets the decoded security record. A nil record clears it.
func (f *InFlight) SetSecurityInfo(rec *secinfo.TransportSecurityInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secRec = rec
	f.secRaw = nil
}

// SetSecurityInfoRaw sets the serialized security info. It is decoded on
// Commit; bytes that do not decode are kept verbatim.
func (f *InFlight) SetSecurityInfoRaw(raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secRaw = raw
	f.secRec = nil
}

// SetResponse delivers the response. nil records that there is none. Only
// the first call has an effect.
func (f *InFlight) SetResponse(resp *Response) {
	f.response.set(resp)
}

// SetCache delivers the cache entry. nil records that there is none. Only
// the first call has an effect.
func (f *InFlight) SetCache(c *CacheEntry) {
	f.cache.set(c)
}

// Commit writes the exchange. It returns once every part has been delivered
// or the session is interrupted, and the transaction has committed.
func (f *InFlight) Commit(ctx context.Context) (*Recorded, error) {
	req, err := requestLiteral(&f.req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	cols := graph.Columns{
		"session_id":        graph.RefValue(f.s.ref),
		"request_id":        req,
		"security_info_id":  graph.Null(),
		"security_info_raw": graph.Null(),
	}
	if err := f.bindSecurity(cols); err != nil {
		return nil, err
	}

	resp, err := f.response.wait(ctx, f.s)
	if err != nil {
		return nil, fmt.Errorf("wait for response: %w", err)
	}
	cache, err := f.cache.wait(ctx, f.s)
	if err != nil {
		return nil, fmt.Errorf("wait for cache entry: %w", err)
	}

	cols["response_id"] = graph.Null()
	if resp != nil {
		lit, err := responseLiteral(resp)
		if err != nil {
			return nil, fmt.Errorf("response: %w", err)
		}
		cols["response_id"] = lit
	}
	cols["cache_entry_id"] = graph.Null()
	if cache != nil {
		cols["cache_entry_id"] = cacheLiteral(cache)
	}

	res, err := f.r.engine.Execute(ctx, graph.NewLiteral("exchanges", cols))
	if err != nil {
		return nil, fmt.Errorf("record exchange: %w", err)
	}
	f.r.logger.Debug("exchange recorded",
		"session", f.s.UUID.String(),
		"exchange", res.Root.ID,
		"url", f.req.URL,
		"interrupted", f.s.Interrupted(),
	)
	return &Recorded{ExchangeID: res.Root.ID, Side: res.Side}, nil
}

func (f *InFlight) bindSecurity(cols graph.Columns) error {
	f.mu.Lock()
	rec, raw := f.secRec, f.secRaw
	f.mu.Unlock()

	if rec == nil && raw != nil {
		decoded, err := secinfo.Decode(raw)
		if err != nil {
			f.r.logger.Warn("security info kept raw", "url", f.req.URL, "error", err)
			cols["security_info_raw"] = graph.Blob(raw)
			return nil
		}
		rec = decoded
	}
	if rec == nil {
		return nil
	}
	// Records that cannot be serialized again are not replayable.
	if _, err := secinfo.Encode(rec); err != nil {
		return fmt.Errorf("security info: %w", err)
	}
	cols["security_info_id"] = securityLiteral(rec)
	return nil
}

// part is a value delivered at most once.
type part[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
}

func newPart[T any]() *part[T] {
	return &part[T]{done: make(chan struct{})}
}

func (p *part[T]) set(v T) {
	p.once.Do(func() {
		p.value = v
		close(p.done)
	})
}

// wait returns the delivered value, or the zero value once s is
// interrupted. A value delivered before the interrupt wins.
func (p *part[T]) wait(ctx context.Context, s *Session) (T, error) {
	var zero T
	select {
	case <-p.done:
		return p.value, nil
	default:
	}
	select {
	case <-p.done:
		return p.value, nil
	case <-s.Done():
		select {
		case <-p.done:
			return p.value, nil
		default:
			return zero, nil
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

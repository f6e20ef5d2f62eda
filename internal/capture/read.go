package capture

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
	"github.com/Mirraz/http-replay-sub000/internal/ir"
	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
)

// ErrNoCacheEntry is returned by Restore for exchanges without a cache entry.
var ErrNoCacheEntry = errors.New("exchange has no cache entry")

// CacheWriter receives restored cache entries, typically a browser cache.
type CacheWriter interface {
	WriteCacheEntry(ctx context.Context, entry *CacheEntry, body, securityInfo []byte) error
}

// Replayer reads stored exchanges back.
type Replayer struct {
	engine *graph.Engine
}

// NewReplayer returns a Replayer reading through e.
func NewReplayer(e *graph.Engine) *Replayer {
	return &Replayer{engine: e}
}

var headerListJoin = graph.Join{
	Table: "header_lists",
	Shape: graph.JoinSpec{Lists: map[string]graph.ListJoin{
		"headers": headerList.Join(graph.Join{
			Table: "headers",
			Shape: graph.JoinSpec{Refs: map[string]graph.Join{
				"name_id": {Table: "header_names"},
			}},
		}),
	}},
}

var exchangeShape = graph.JoinSpec{
	Refs: map[string]graph.Join{
		"session_id": {Table: "sessions"},
		"request_id": {
			Table: "requests",
			Shape: graph.JoinSpec{Refs: map[string]graph.Join{
				"method_id":      {Table: "request_methods"},
				"url_id":         {Table: "urls"},
				"header_list_id": headerListJoin,
				"body_id":        {Table: "bodies"},
			}},
		},
		"response_id": {
			Table: "responses",
			Shape: graph.JoinSpec{Refs: map[string]graph.Join{
				"status_text_id":  {Table: "status_texts"},
				"http_version_id": {Table: "http_versions"},
				"header_list_id":  headerListJoin,
				"content_type_id": {Table: "content_types"},
				"charset_id":      {Table: "charsets"},
				"body_id":         {Table: "bodies"},
			}},
		},
		"cache_entry_id": {
			Table: "cache_entries",
			Shape: graph.JoinSpec{Refs: map[string]graph.Join{
				"meta_list_id": {
					Table: "cache_meta_lists",
					Shape: graph.JoinSpec{Lists: map[string]graph.ListJoin{
						"meta": cacheMetaList.Join(graph.Join{
							Table: "cache_meta",
							Shape: graph.JoinSpec{Refs: map[string]graph.Join{
								"name_id": {Table: "cache_meta_names"},
							}},
						}),
					}},
				},
			}},
		},
		"security_info_id": {Table: "security_infos", Shape: securityShape},
	},
}

// LoadRow returns the stored row graph of an exchange.
func (p *Replayer) LoadRow(ctx context.Context, id int64) (*graph.Row, error) {
	return p.engine.Load(ctx, "exchanges", id, exchangeShape)
}

// Load reconstructs an exchange.
func (p *Replayer) Load(ctx context.Context, id int64) (*Exchange, error) {
	row, err := p.LoadRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load exchange: %w", err)
	}
	return exchangeFromRow(row)
}

func exchangeFromRow(row *graph.Row) (*Exchange, error) {
	ex := &Exchange{ID: row.ID}
	if s := row.Ref("session_id"); s != nil {
		ex.Session = s.Text("uuid")
		ex.SessionInterrupted = s.Bool("interrupted")
	}

	req := row.Ref("request_id")
	if req == nil {
		return nil, fmt.Errorf("exchange %d: missing request", row.ID)
	}
	body, err := bodyFromRow(req.Ref("body_id"))
	if err != nil {
		return nil, err
	}
	ex.Request = Request{
		Method:  enumText(req, "method_id"),
		URL:     enumText(req, "url_id"),
		Headers: headersFromRow(req.Ref("header_list_id")),
		Body:    body,
	}

	if resp := row.Ref("response_id"); resp != nil {
		body, err := bodyFromRow(resp.Ref("body_id"))
		if err != nil {
			return nil, err
		}
		ex.Response = &Response{
			StatusCode:    int(resp.Int("status_code")),
			StatusText:    enumText(resp, "status_text_id"),
			HTTPVersion:   enumText(resp, "http_version_id"),
			Headers:       headersFromRow(resp.Ref("header_list_id")),
			ContentType:   enumText(resp, "content_type_id"),
			Charset:       enumText(resp, "charset_id"),
			ContentLength: resp.Int("content_length"),
			Body:          body,
		}
	}

	if c := row.Ref("cache_entry_id"); c != nil {
		ex.Cache = &CacheEntry{
			Key:            c.Text("key"),
			DataSize:       c.Int("data_size"),
			StorageSize:    c.Int("storage_size"),
			FetchCount:     c.Int("fetch_count"),
			LastFetched:    c.Int("last_fetched"),
			LastModified:   c.Int("last_modified"),
			ExpirationTime: c.Int("expiration_time"),
		}
		if head := c.Ref("meta_list_id"); head != nil {
			for _, m := range head.List("meta") {
				ex.Cache.Meta = append(ex.Cache.Meta, CacheMeta{
					Name:  enumText(m, "name_id"),
					Value: m.Blob("value"),
				})
			}
		}
	}

	if sec := row.Ref("security_info_id"); sec != nil {
		ex.SecurityInfo = securityFromRow(sec)
	} else if raw := row.Blob("security_info_raw"); raw != nil {
		ex.SecurityInfoRaw = raw
	}
	return ex, nil
}

func enumText(row *graph.Row, col string) string {
	if ref := row.Ref(col); ref != nil {
		return ref.Text("value")
	}
	return ""
}

func headersFromRow(head *graph.Row) []Header {
	if head == nil {
		return nil
	}
	elems := head.List("headers")
	headers := make([]Header, len(elems))
	for i, h := range elems {
		headers[i] = Header{Name: enumText(h, "name_id"), Value: h.Text("value")}
	}
	return headers
}

// SecurityInfoBytes returns the serialized security info of ex: the stored
// bytes when it was kept raw, the re-encoded record otherwise, and nil when
// there is none.
func SecurityInfoBytes(ex *Exchange) ([]byte, error) {
	if ex.SecurityInfo != nil {
		return secinfo.Encode(ex.SecurityInfo)
	}
	return ex.SecurityInfoRaw, nil
}

// SecurityInfoBytes loads an exchange and returns its serialized security info.
func (p *Replayer) SecurityInfoBytes(ctx context.Context, id int64) ([]byte, error) {
	ex, err := p.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return SecurityInfoBytes(ex)
}

// Restore hands an exchange's cache entry, response body and security info
// to w.
func (p *Replayer) Restore(ctx context.Context, id int64, w CacheWriter) error {
	ex, err := p.Load(ctx, id)
	if err != nil {
		return err
	}
	if ex.Cache == nil {
		return fmt.Errorf("exchange %d: %w", id, ErrNoCacheEntry)
	}
	sec, err := SecurityInfoBytes(ex)
	if err != nil {
		return fmt.Errorf("exchange %d: %w", id, err)
	}
	var body []byte
	if ex.Response != nil {
		body = ex.Response.Body
	}
	return w.WriteCacheEntry(ctx, ex.Cache, body, sec)
}

// List returns the exchange ids of a session in recording order. An empty
// sessionUUID lists every exchange.
func (p *Replayer) List(ctx context.Context, sessionUUID string) ([]int64, error) {
	if sessionUUID == "" {
		return p.engine.IDs(ctx, "exchanges", "", nil)
	}
	sessions, err := p.engine.IDs(ctx, "sessions", "uuid", ir.Text(sessionUUID))
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("session %s: %w", sessionUUID, graph.ErrNotFound)
	}
	return p.engine.IDs(ctx, "exchanges", "session_id", ir.Int(sessions[0]))
}

// replayable is the content an exchange digest covers: everything needed to
// replay it, without store-assigned ids.
type replayable struct {
	Request      Request     `json:"request"`
	Response     *Response   `json:"response"`
	Cache        *CacheEntry `json:"cache"`
	SecurityInfo []byte      `json:"security_info"`
}

// Digest returns the SHA-256 of an exchange's canonical replayable content.
// Equal digests mean the exchanges replay identically.
func (p *Replayer) Digest(ctx context.Context, id int64) (string, error) {
	ex, err := p.Load(ctx, id)
	if err != nil {
		return "", err
	}
	return ExchangeDigest(ex)
}

// ExchangeDigest computes the digest Replayer.Digest reports for ex.
func ExchangeDigest(ex *Exchange) (string, error) {
	sec, err := SecurityInfoBytes(ex)
	if err != nil {
		return "", err
	}
	view := replayable{
		Request:      ex.Request,
		SecurityInfo: sec,
	}
	view.Request.Headers = canonicalHeaders(ex.Request.Headers)
	if ex.Response != nil {
		resp := *ex.Response
		resp.Headers = canonicalHeaders(resp.Headers)
		view.Response = &resp
	}
	if ex.Cache != nil {
		c := *ex.Cache
		c.Meta = make([]CacheMeta, len(ex.Cache.Meta))
		for i, m := range ex.Cache.Meta {
			if m.Value == nil {
				m.Value = []byte{}
			}
			c.Meta[i] = m
		}
		view.Cache = &c
	}
	return ir.DigestCanonical(ir.DomainExchange, view)
}

// canonicalHeaders returns headers as stored: names NFC-normalized, never nil.
func canonicalHeaders(headers []Header) []Header {
	out := make([]Header, len(headers))
	for i, h := range headers {
		out[i] = Header{Name: norm.NFC.String(h.Name), Value: h.Value}
	}
	return out
}

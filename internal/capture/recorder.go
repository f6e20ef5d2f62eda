package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
	"github.com/Mirraz/http-replay-sub000/internal/store"
)

// NewEngine returns a graph engine over s using the capture presets.
func NewEngine(s *store.Store, opts ...graph.EngineOption) (*graph.Engine, error) {
	presets, err := DefaultPresets()
	if err != nil {
		return nil, err
	}
	return graph.New(s, presets, opts...)
}

// Recorder writes sessions and exchanges through a graph engine.
type Recorder struct {
	engine *graph.Engine
	logger *slog.Logger
	newID  func() (uuid.UUID, error)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = l
	}
}

// WithIDGenerator replaces UUIDv7 session identifiers, typically with a
// deterministic sequence in tests.
func WithIDGenerator(gen func() (uuid.UUID, error)) Option {
	return func(r *Recorder) {
		r.newID = gen
	}
}

// NewRecorder returns a Recorder writing through e.
func NewRecorder(e *graph.Engine, opts ...Option) *Recorder {
	r := &Recorder{
		engine: e,
		logger: slog.Default(),
		newID:  uuid.NewV7,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Engine returns the underlying graph engine.
func (r *Recorder) Engine() *graph.Engine {
	return r.engine
}

// StartSession writes a new session row.
func (r *Recorder) StartSession(ctx context.Context, label string) (*Session, error) {
	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	res, err := r.engine.Execute(ctx, graph.NewLiteral("sessions", graph.Columns{
		"uuid":  graph.Text(id.String()),
		"label": graph.Text(label),
	}))
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	r.logger.Info("session started", "uuid", id.String(), "label", label)
	return newSession(id, label, res.Root), nil
}

// Interrupt interrupts s and marks its session row interrupted. Exchanges
// still waiting for parts are released and store the missing parts as null.
func (r *Recorder) Interrupt(ctx context.Context, s *Session) error {
	s.Interrupt()
	err := r.engine.Update(ctx, "sessions", s.ID(), graph.Columns{
		"interrupted": graph.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("interrupt session: %w", err)
	}
	r.logger.Info("session interrupted", "uuid", s.UUID.String(), "label", s.Label)
	return nil
}

// Recorded is the outcome of storing one exchange.
type Recorded struct {
	ExchangeID int64

	// Side holds the ids of list elements written with the exchange, keyed
	// by SideRequestHeaders, SideResponseHeaders, SideCacheMeta,
	// SideServerCert and SideFailedChain. Lists that were not written are
	// absent.
	Side graph.SideResults
}

// Record stores an exchange whose parts are all available.
func (r *Recorder) Record(ctx context.Context, s *Session, ex *Exchange) (*Recorded, error) {
	f := r.Begin(s, ex.Request)
	f.SetSecurityInfo(ex.SecurityInfo)
	if ex.SecurityInfoRaw != nil {
		f.SetSecurityInfoRaw(ex.SecurityInfoRaw)
	}
	f.SetResponse(ex.Response)
	f.SetCache(ex.Cache)
	return f.Commit(ctx)
}

// enumLiteral returns the enum row holding v.
func enumLiteral(table string, v graph.ColumnValue) *graph.Literal {
	return graph.NewLiteral(table, graph.Columns{"value": v})
}

// optionalEnum returns the enum row for s, or null when s is empty.
func optionalEnum(table, s string) graph.ColumnValue {
	if s == "" {
		return graph.Null()
	}
	return enumLiteral(table, graph.Text(s))
}

// headerListValue writes headers as an ordered list reported under side.
// Header names are stored NFC-normalized.
func headerListValue(side string, headers []Header) graph.Deferred {
	items := make([]*graph.Literal, len(headers))
	for i, h := range headers {
		items[i] = graph.NewLiteral("headers", graph.Columns{
			"name_id": enumLiteral("header_names", graph.Text(norm.NFC.String(h.Name))),
			"value":   graph.Text(h.Value),
		})
	}
	return graph.OrderedList(headerList, side, items)
}

func requestLiteral(req *Request) (*graph.Literal, error) {
	body, err := bodyLiteral(req.Body)
	if err != nil {
		return nil, err
	}
	return graph.NewLiteral("requests", graph.Columns{
		"method_id":      enumLiteral("request_methods", graph.Text(req.Method)),
		"url_id":         enumLiteral("urls", graph.Text(req.URL)),
		"header_list_id": headerListValue(SideRequestHeaders, req.Headers),
		"body_id":        literalOrNull(body),
	}), nil
}

func responseLiteral(resp *Response) (*graph.Literal, error) {
	body, err := bodyLiteral(resp.Body)
	if err != nil {
		return nil, err
	}
	return graph.NewLiteral("responses", graph.Columns{
		"status_code":     graph.Int(int64(resp.StatusCode)),
		"status_text_id":  optionalEnum("status_texts", resp.StatusText),
		"http_version_id": optionalEnum("http_versions", resp.HTTPVersion),
		"header_list_id":  headerListValue(SideResponseHeaders, resp.Headers),
		"content_type_id": optionalEnum("content_types", resp.ContentType),
		"charset_id":      optionalEnum("charsets", resp.Charset),
		"content_length":  graph.Int(resp.ContentLength),
		"body_id":         literalOrNull(body),
	}), nil
}

func cacheLiteral(c *CacheEntry) *graph.Literal {
	items := make([]*graph.Literal, len(c.Meta))
	for i, m := range c.Meta {
		items[i] = graph.NewLiteral("cache_meta", graph.Columns{
			"name_id": enumLiteral("cache_meta_names", graph.Text(m.Name)),
			"value":   graph.Blob(m.Value),
		})
	}
	return graph.NewLiteral("cache_entries", graph.Columns{
		"key":             graph.Text(c.Key),
		"data_size":       graph.Int(c.DataSize),
		"storage_size":    graph.Int(c.StorageSize),
		"fetch_count":     graph.Int(c.FetchCount),
		"last_fetched":    graph.Int(c.LastFetched),
		"last_modified":   graph.Int(c.LastModified),
		"expiration_time": graph.Int(c.ExpirationTime),
		"meta_list_id":    graph.OrderedList(cacheMetaList, SideCacheMeta, items),
	})
}

// literalOrNull keeps a nil *Literal from becoming a typed-nil ColumnValue.
func literalOrNull(lit *graph.Literal) graph.ColumnValue {
	if lit == nil {
		return graph.Null()
	}
	return lit
}

package capture

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Mirraz/http-replay-sub000/internal/querysql"
	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
	"github.com/Mirraz/http-replay-sub000/internal/store"
	"github.com/Mirraz/http-replay-sub000/internal/testutil"
)

type testEnv struct {
	store    *store.Store
	recorder *Recorder
	replayer *Replayer
	ids      *testutil.SequentialIDs
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := testutil.TempStore(t)
	e, err := NewEngine(s)
	require.NoError(t, err)

	ids := testutil.NewSequentialIDs()
	rec := NewRecorder(e, WithIDGenerator(func() (uuid.UUID, error) {
		return ids.Next(), nil
	}))
	return &testEnv{
		store:    s,
		recorder: rec,
		replayer: NewReplayer(e),
		ids:      ids,
	}
}

func (env *testEnv) session(t *testing.T) *Session {
	t.Helper()
	s, err := env.recorder.StartSession(context.Background(), "test")
	require.NoError(t, err)
	return s
}

func (env *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, env.store.DB().QueryRow(querysql.Count(table)).Scan(&n))
	return n
}

func sampleRequest(url string) Request {
	return Request{
		Method: "GET",
		URL:    url,
		Headers: []Header{
			{Name: "Host", Value: "example.com"},
			{Name: "Accept", Value: "text/html"},
			{Name: "Accept", Value: "*/*"},
		},
	}
}

func sampleResponse(body string) *Response {
	return &Response{
		StatusCode:  200,
		StatusText:  "OK",
		HTTPVersion: "HTTP/1.1",
		Headers: []Header{
			{Name: "Content-Type", Value: "text/html; charset=utf-8"},
			{Name: "Set-Cookie", Value: "a=1"},
			{Name: "Set-Cookie", Value: "b=2"},
		},
		ContentType:   "text/html",
		Charset:       "utf-8",
		ContentLength: int64(len(body)),
		Body:          []byte(body),
	}
}

func sampleCache(key string) *CacheEntry {
	return &CacheEntry{
		Key:            key,
		DataSize:       120,
		StorageSize:    512,
		FetchCount:     3,
		LastFetched:    1700000300,
		LastModified:   1700000000,
		ExpirationTime: 1700086400,
		Meta: []CacheMeta{
			{Name: "request-method", Value: []byte("GET")},
			{Name: "response-head", Value: []byte("HTTP/1.1 200 OK\r\n")},
		},
	}
}

func sampleSecurity(t *testing.T) *secinfo.TransportSecurityInfo {
	t.Helper()
	leaf := testutil.SelfSignedDER(t, "leaf.example.com")
	root := testutil.SelfSignedDER(t, "root.example.com")
	return &secinfo.TransportSecurityInfo{
		SecurityState:     0x40002,
		SubRequestsBroken: 0,
		SubRequestsNone:   1,
		ErrorCode:         0x805a3ff2,
		ErrorMessage:      "certificate expired",
		TLSStatus: &secinfo.TLSStatus{
			ServerCert:      secinfo.CertEntry{CachedEVStatus: 2, CertBytes: leaf},
			CipherSuite:     0xc02f,
			ProtocolVersion: 3,
			NotValidNow:     true,
			HasEVStatus:     true,
			HaveCipherInfo:  true,
		},
		FailedChain: &secinfo.CertList{Entries: []secinfo.CertEntry{
			{CachedEVStatus: 0, CertBytes: leaf},
			{CachedEVStatus: 1, CertBytes: root},
		}},
	}
}

func fullExchange(t *testing.T, url string) *Exchange {
	t.Helper()
	return &Exchange{
		Request:      sampleRequest(url),
		Response:     sampleResponse(fmt.Sprintf("<html>%s</html>", url)),
		Cache:        sampleCache(url),
		SecurityInfo: sampleSecurity(t),
	}
}

// recordingCache is a CacheWriter keeping what it was handed.
type recordingCache struct {
	entries []*CacheEntry
	bodies  [][]byte
	secs    [][]byte
}

func (c *recordingCache) WriteCacheEntry(_ context.Context, entry *CacheEntry, body, sec []byte) error {
	c.entries = append(c.entries, entry)
	c.bodies = append(c.bodies, body)
	c.secs = append(c.secs, sec)
	return nil
}

var _ CacheWriter = (*recordingCache)(nil)


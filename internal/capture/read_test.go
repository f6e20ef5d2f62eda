package capture

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
)

func TestReplayer_LoadNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.replayer.Load(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestReplayer_LoadRowShape(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.session(t)

	got, err := env.recorder.Record(ctx, s, fullExchange(t, "https://example.com/row"))
	require.NoError(t, err)

	row, err := env.replayer.LoadRow(ctx, got.ExchangeID)
	require.NoError(t, err)
	assert.Equal(t, "exchanges", row.Table)

	req := row.Ref("request_id")
	require.NotNil(t, req)
	assert.Equal(t, "GET", req.Ref("method_id").Text("value"))
	headers := req.Ref("header_list_id").List("headers")
	require.Len(t, headers, 3)
	for i, h := range headers {
		assert.Equal(t, got.Side[SideRequestHeaders][i], h.ID)
	}

	tls := row.Ref("security_info_id").Ref("tls_status_id")
	require.NotNil(t, tls)
	assert.Equal(t, got.Side[SideServerCert][0], tls.Ref("server_cert_id").ID)
}

func TestReplayer_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s1 := env.session(t)
	s2 := env.session(t)

	var first []int64
	for _, url := range []string{"https://a.example/1", "https://a.example/2"} {
		got, err := env.recorder.Record(ctx, s1, &Exchange{Request: sampleRequest(url)})
		require.NoError(t, err)
		first = append(first, got.ExchangeID)
	}
	other, err := env.recorder.Record(ctx, s2, &Exchange{Request: sampleRequest("https://b.example/")})
	require.NoError(t, err)

	ids, err := env.replayer.List(ctx, s1.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, first, ids)

	ids, err = env.replayer.List(ctx, s2.UUID.String())
	require.NoError(t, err)
	assert.Equal(t, []int64{other.ExchangeID}, ids)

	all, err := env.replayer.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, append(first, other.ExchangeID), all)
}

func TestReplayer_ListUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.replayer.List(context.Background(), "00000000-0000-7000-8000-0000000000ff")
	require.Error(t, err)
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestReplayer_Restore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.session(t)

	ex := fullExchange(t, "https://example.com/cached")
	got, err := env.recorder.Record(ctx, s, ex)
	require.NoError(t, err)

	var w recordingCache
	require.NoError(t, env.replayer.Restore(ctx, got.ExchangeID, &w))
	require.Len(t, w.entries, 1)
	assert.Equal(t, ex.Cache, w.entries[0])
	assert.Equal(t, ex.Response.Body, w.bodies[0])

	want, err := secinfo.Encode(ex.SecurityInfo)
	require.NoError(t, err)
	assert.Equal(t, want, w.secs[0])
}

func TestReplayer_RestoreWithoutCacheEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.session(t)

	got, err := env.recorder.Record(ctx, s, &Exchange{Request: sampleRequest("https://example.com/nocache")})
	require.NoError(t, err)

	var w recordingCache
	err = env.replayer.Restore(ctx, got.ExchangeID, &w)
	assert.ErrorIs(t, err, ErrNoCacheEntry)
	assert.Empty(t, w.entries)
}

func TestDigest_MatchesRecordedExchange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.session(t)

	ex := fullExchange(t, "https://example.com/digest")
	ex.Request.Headers = append(ex.Request.Headers, Header{Name: "X-Café", Value: "v"})
	want, err := ExchangeDigest(ex)
	require.NoError(t, err)
	assert.Len(t, want, 64)

	got, err := env.recorder.Record(ctx, s, ex)
	require.NoError(t, err)
	digest, err := env.replayer.Digest(ctx, got.ExchangeID)
	require.NoError(t, err)
	assert.Equal(t, want, digest)
}

func TestDigest_IgnoresSessionAndID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ex := fullExchange(t, "https://example.com/same")
	a, err := env.recorder.Record(ctx, env.session(t), ex)
	require.NoError(t, err)
	b, err := env.recorder.Record(ctx, env.session(t), ex)
	require.NoError(t, err)

	da, err := env.replayer.Digest(ctx, a.ExchangeID)
	require.NoError(t, err)
	db, err := env.replayer.Digest(ctx, b.ExchangeID)
	require.NoError(t, err)
	assert.Equal(t, da, db)

	changed := *ex
	changed.Response = sampleResponse("different")
	c, err := env.recorder.Record(ctx, env.session(t), &changed)
	require.NoError(t, err)
	dc, err := env.replayer.Digest(ctx, c.ExchangeID)
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)
}

func TestBody_CompressedWhenSmaller(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.session(t)

	big := strings.Repeat("compressible ", 200)
	got, err := env.recorder.Record(ctx, s, &Exchange{
		Request:  sampleRequest("https://example.com/big"),
		Response: sampleResponse(big),
	})
	require.NoError(t, err)

	row, err := env.replayer.LoadRow(ctx, got.ExchangeID)
	require.NoError(t, err)
	body := row.Ref("response_id").Ref("body_id")
	require.NotNil(t, body)
	assert.Equal(t, EncodingGzip, body.Text("encoding"))
	assert.EqualValues(t, len(big), body.Int("size"))
	assert.Less(t, len(body.Blob("data")), len(big))

	loaded, err := env.replayer.Load(ctx, got.ExchangeID)
	require.NoError(t, err)
	assert.Equal(t, []byte(big), loaded.Response.Body)
}

func TestBody_IdentityWhenIncompressible(t *testing.T) {
	for _, b := range [][]byte{{}, []byte("x"), {0x1f, 0x8b, 0x00}} {
		encoding, data, err := encodeBody(b)
		require.NoError(t, err)
		assert.Equal(t, EncodingIdentity, encoding)
		assert.True(t, bytes.Equal(b, data))

		back, err := decodeBody(encoding, data)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(b, back))
	}
}

func TestBody_UnknownEncoding(t *testing.T) {
	_, err := decodeBody("br", []byte("x"))
	assert.ErrorContains(t, err, `unknown body encoding "br"`)
}

func TestBody_DigestMismatchDetected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.session(t)

	req := sampleRequest("https://example.com/post")
	req.Method = "POST"
	req.Body = []byte("a=1")
	got, err := env.recorder.Record(ctx, s, &Exchange{Request: req})
	require.NoError(t, err)

	_, err = env.store.DB().Exec(`UPDATE bodies SET data = ?`, []byte("a=2"))
	require.NoError(t, err)

	_, err = env.replayer.Load(ctx, got.ExchangeID)
	assert.ErrorContains(t, err, "digest mismatch")
}

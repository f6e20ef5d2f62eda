package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
)

func TestLoadFixtures_YAML(t *testing.T) {
	exchanges, err := LoadFixtures("testdata/exchanges.yaml")
	require.NoError(t, err)
	require.Len(t, exchanges, 2)

	get := exchanges[0]
	assert.Equal(t, "GET", get.Request.Method)
	assert.Equal(t, []Header{
		{Name: "Host", Value: "example.com"},
		{Name: "Accept", Value: "text/html"},
	}, get.Request.Headers)
	assert.Nil(t, get.Request.Body)

	require.NotNil(t, get.Response)
	assert.Equal(t, 200, get.Response.StatusCode)
	assert.Equal(t, "utf-8", get.Response.Charset)
	assert.EqualValues(t, len(get.Response.Body), get.Response.ContentLength)

	require.NotNil(t, get.Cache)
	assert.Equal(t, []CacheMeta{
		{Name: "request-method", Value: []byte("GET")},
		{Name: "security-info", Value: []byte("opaque")},
	}, get.Cache.Meta)

	rec, err := secinfo.Decode(get.SecurityInfoRaw)
	require.NoError(t, err)
	assert.Equal(t, &secinfo.TransportSecurityInfo{}, rec)

	post := exchanges[1]
	assert.Equal(t, []byte("a=1&b=2"), post.Request.Body)
	assert.Nil(t, post.Response)
	assert.Nil(t, post.SecurityInfoRaw)
}

func TestLoadFixtures_JSON(t *testing.T) {
	exchanges, err := LoadFixtures("testdata/exchanges.json")
	require.NoError(t, err)
	require.Len(t, exchanges, 1)

	resp := exchanges[0].Response
	require.NotNil(t, resp)
	assert.Equal(t, 304, resp.StatusCode)
	assert.EqualValues(t, 0, resp.ContentLength)
	assert.Nil(t, resp.Body)
	assert.NotEmpty(t, exchanges[0].SecurityInfoRaw)
}

func TestLoadFixtures_Record(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	s := env.session(t)

	exchanges, err := LoadFixtures("testdata/exchanges.yaml")
	require.NoError(t, err)
	for _, ex := range exchanges {
		_, err := env.recorder.Record(ctx, s, ex)
		require.NoError(t, err)
	}

	ids, err := env.replayer.List(ctx, s.UUID.String())
	require.NoError(t, err)
	require.Len(t, ids, 2)

	loaded, err := env.replayer.Load(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, &secinfo.TransportSecurityInfo{}, loaded.SecurityInfo)
	assert.Equal(t, exchanges[0].Cache, loaded.Cache)

	b, err := SecurityInfoBytes(loaded)
	require.NoError(t, err)
	assert.Equal(t, exchanges[0].SecurityInfoRaw, b)
}

func TestLoadFixtures_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			file:    "x.yaml",
			content: "exchanges:\n  - request: {method: GET, url: /}\n    bogus: 1\n",
			wantErr: "bogus",
		},
		{
			name:    "missing url",
			file:    "x.yaml",
			content: "exchanges:\n  - request: {method: GET}\n",
			wantErr: "request needs method and url",
		},
		{
			name:    "body twice",
			file:    "x.yaml",
			content: "exchanges:\n  - request: {method: GET, url: /, body: a, body_base64: YQ==}\n",
			wantErr: "not both",
		},
		{
			name:    "bad base64 body",
			file:    "x.yaml",
			content: "exchanges:\n  - request: {method: GET, url: /, body_base64: '***'}\n",
			wantErr: "request body",
		},
		{
			name:    "bad envelope",
			file:    "x.yaml",
			content: "exchanges:\n  - request: {method: GET, url: /}\n    security_info: '***'\n",
			wantErr: "security info",
		},
		{
			name:    "json unknown field",
			file:    "x.json",
			content: `{"exchanges": [], "extra": true}`,
			wantErr: "extra",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadFixtures(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFixtures_MissingFile(t *testing.T) {
	_, err := LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

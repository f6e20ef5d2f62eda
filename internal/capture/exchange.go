package capture

import (
	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
)

// Header is one HTTP header line. Order and duplicates are preserved.
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Request is the request half of an exchange.
type Request struct {
	Method  string   `json:"method"`
	URL     string   `json:"url"`
	Headers []Header `json:"headers"`

	// Body is nil when the request carried no body.
	Body []byte `json:"body,omitempty"`
}

// Response is the response half of an exchange.
type Response struct {
	StatusCode  int      `json:"status_code"`
	StatusText  string   `json:"status_text,omitempty"`
	HTTPVersion string   `json:"http_version,omitempty"`
	Headers     []Header `json:"headers"`
	ContentType string   `json:"content_type,omitempty"`
	Charset     string   `json:"charset,omitempty"`

	// ContentLength is -1 when unknown.
	ContentLength int64 `json:"content_length"`

	Body []byte `json:"body,omitempty"`
}

// CacheMeta is one metadata element of a browser cache entry.
type CacheMeta struct {
	Name  string `json:"name" yaml:"name"`
	Value []byte `json:"value"`
}

// CacheEntry is the browser cache record written alongside a response.
// Times are seconds since the Unix epoch.
type CacheEntry struct {
	Key            string      `json:"key"`
	DataSize       int64       `json:"data_size"`
	StorageSize    int64       `json:"storage_size"`
	FetchCount     int64       `json:"fetch_count"`
	LastFetched    int64       `json:"last_fetched"`
	LastModified   int64       `json:"last_modified"`
	ExpirationTime int64       `json:"expiration_time"`
	Meta           []CacheMeta `json:"meta"`
}

// Exchange is one captured request with whatever arrived for it.
//
// Security info is held either decoded (SecurityInfo) or, when it could not
// be decoded, as the raw object stream (SecurityInfoRaw). At most one is set.
type Exchange struct {
	// ID, Session and SessionInterrupted are assigned by the store; they are
	// zero when recording.
	ID                 int64  `json:"id,omitempty"`
	Session            string `json:"session,omitempty"`
	SessionInterrupted bool   `json:"session_interrupted,omitempty"`

	Request         Request                        `json:"request"`
	Response        *Response                      `json:"response,omitempty"`
	Cache           *CacheEntry                    `json:"cache,omitempty"`
	SecurityInfo    *secinfo.TransportSecurityInfo `json:"security_info,omitempty"`
	SecurityInfoRaw []byte                         `json:"security_info_raw,omitempty"`
}

package capture

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Mirraz/http-replay-sub000/internal/secinfo"
)

// FixtureFile is the on-disk form of captured exchanges.
//
//	exchanges:
//	  - request:
//	      method: GET
//	      url: https://example.com/
//	      headers:
//	        - {name: Host, value: example.com}
//	    response:
//	      status: 200
//	      status_text: OK
//	      body: "<html></html>"
//	    security_info: <base64 envelope>
//
// Bodies and cache metadata values are text, or base64 under the *_base64
// key.
type FixtureFile struct {
	Exchanges []FixtureExchange `yaml:"exchanges" json:"exchanges"`
}

// FixtureExchange is one exchange of a fixture file.
type FixtureExchange struct {
	Request      FixtureRequest   `yaml:"request" json:"request"`
	Response     *FixtureResponse `yaml:"response,omitempty" json:"response,omitempty"`
	Cache        *FixtureCache    `yaml:"cache,omitempty" json:"cache,omitempty"`
	SecurityInfo string           `yaml:"security_info,omitempty" json:"security_info,omitempty"`
}

type FixtureRequest struct {
	Method     string   `yaml:"method" json:"method"`
	URL        string   `yaml:"url" json:"url"`
	Headers    []Header `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body       *string  `yaml:"body,omitempty" json:"body,omitempty"`
	BodyBase64 *string  `yaml:"body_base64,omitempty" json:"body_base64,omitempty"`
}

type FixtureResponse struct {
	Status        int      `yaml:"status" json:"status"`
	StatusText    string   `yaml:"status_text,omitempty" json:"status_text,omitempty"`
	HTTPVersion   string   `yaml:"http_version,omitempty" json:"http_version,omitempty"`
	Headers       []Header `yaml:"headers,omitempty" json:"headers,omitempty"`
	ContentType   string   `yaml:"content_type,omitempty" json:"content_type,omitempty"`
	Charset       string   `yaml:"charset,omitempty" json:"charset,omitempty"`
	ContentLength *int64   `yaml:"content_length,omitempty" json:"content_length,omitempty"`
	Body          *string  `yaml:"body,omitempty" json:"body,omitempty"`
	BodyBase64    *string  `yaml:"body_base64,omitempty" json:"body_base64,omitempty"`
}

type FixtureCache struct {
	Key            string        `yaml:"key" json:"key"`
	DataSize       int64         `yaml:"data_size" json:"data_size"`
	StorageSize    int64         `yaml:"storage_size" json:"storage_size"`
	FetchCount     int64         `yaml:"fetch_count" json:"fetch_count"`
	LastFetched    int64         `yaml:"last_fetched" json:"last_fetched"`
	LastModified   int64         `yaml:"last_modified" json:"last_modified"`
	ExpirationTime int64         `yaml:"expiration_time" json:"expiration_time"`
	Meta           []FixtureMeta `yaml:"meta,omitempty" json:"meta,omitempty"`
}

type FixtureMeta struct {
	Name        string  `yaml:"name" json:"name"`
	Value       *string `yaml:"value,omitempty" json:"value,omitempty"`
	ValueBase64 *string `yaml:"value_base64,omitempty" json:"value_base64,omitempty"`
}

// LoadFixtures reads exchanges from a YAML or JSON fixture file. The format
// follows the file extension; anything but .json is read as YAML.
func LoadFixtures(path string) ([]*Exchange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var file FixtureFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&file)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&file)
	}
	if err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	return file.ToExchanges()
}

// ToExchanges converts the fixture entries to exchanges.
func (f *FixtureFile) ToExchanges() ([]*Exchange, error) {
	out := make([]*Exchange, 0, len(f.Exchanges))
	for i := range f.Exchanges {
		ex, err := f.Exchanges[i].Exchange()
		if err != nil {
			return nil, fmt.Errorf("exchange %d: %w", i, err)
		}
		out = append(out, ex)
	}
	return out, nil
}

// Exchange converts one fixture entry.
func (fx *FixtureExchange) Exchange() (*Exchange, error) {
	if fx.Request.Method == "" || fx.Request.URL == "" {
		return nil, fmt.Errorf("request needs method and url")
	}
	reqBody, err := fixtureBytes("request body", fx.Request.Body, fx.Request.BodyBase64)
	if err != nil {
		return nil, err
	}
	ex := &Exchange{
		Request: Request{
			Method:  fx.Request.Method,
			URL:     fx.Request.URL,
			Headers: fx.Request.Headers,
			Body:    reqBody,
		},
	}

	if r := fx.Response; r != nil {
		body, err := fixtureBytes("response body", r.Body, r.BodyBase64)
		if err != nil {
			return nil, err
		}
		length := int64(-1)
		if r.ContentLength != nil {
			length = *r.ContentLength
		} else if body != nil {
			length = int64(len(body))
		}
		ex.Response = &Response{
			StatusCode:    r.Status,
			StatusText:    r.StatusText,
			HTTPVersion:   r.HTTPVersion,
			Headers:       r.Headers,
			ContentType:   r.ContentType,
			Charset:       r.Charset,
			ContentLength: length,
			Body:          body,
		}
	}

	if c := fx.Cache; c != nil {
		ex.Cache = &CacheEntry{
			Key:            c.Key,
			DataSize:       c.DataSize,
			StorageSize:    c.StorageSize,
			FetchCount:     c.FetchCount,
			LastFetched:    c.LastFetched,
			LastModified:   c.LastModified,
			ExpirationTime: c.ExpirationTime,
		}
		for _, m := range c.Meta {
			value, err := fixtureBytes("cache meta "+m.Name, m.Value, m.ValueBase64)
			if err != nil {
				return nil, err
			}
			if value == nil {
				value = []byte{}
			}
			ex.Cache.Meta = append(ex.Cache.Meta, CacheMeta{Name: m.Name, Value: value})
		}
	}

	if fx.SecurityInfo != "" {
		raw, err := secinfo.UnwrapEnvelope(fx.SecurityInfo)
		if err != nil {
			return nil, fmt.Errorf("security info: %w", err)
		}
		ex.SecurityInfoRaw = raw
	}
	return ex, nil
}

func fixtureBytes(what string, text, b64 *string) ([]byte, error) {
	switch {
	case text != nil && b64 != nil:
		return nil, fmt.Errorf("%s: set text or base64, not both", what)
	case text != nil:
		return []byte(*text), nil
	case b64 != nil:
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(*b64))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		return b, nil
	default:
		return nil, nil
	}
}

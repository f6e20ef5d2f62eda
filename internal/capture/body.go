package capture

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/Mirraz/http-replay-sub000/internal/graph"
	"github.com/Mirraz/http-replay-sub000/internal/ir"
)

// Body encodings stored in bodies.encoding.
const (
	EncodingIdentity = "identity"
	EncodingGzip     = "gzip"
)

// encodeBody compresses b when that makes it smaller.
func encodeBody(b []byte) (string, []byte, error) {
	if len(b) == 0 {
		return EncodingIdentity, b, nil
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", nil, err
	}
	if _, err := zw.Write(b); err != nil {
		return "", nil, err
	}
	if err := zw.Close(); err != nil {
		return "", nil, err
	}
	if buf.Len() >= len(b) {
		return EncodingIdentity, b, nil
	}
	return EncodingGzip, buf.Bytes(), nil
}

// decodeBody reverses encodeBody.
func decodeBody(encoding string, data []byte) ([]byte, error) {
	switch encoding {
	case EncodingIdentity:
		return data, nil
	case EncodingGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return nil, fmt.Errorf("unknown body encoding %q", encoding)
	}
}

// bodyLiteral returns the bodies row for b, or nil when there is no body.
func bodyLiteral(b []byte) (*graph.Literal, error) {
	if b == nil {
		return nil, nil
	}
	encoding, data, err := encodeBody(b)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return graph.NewLiteral("bodies", graph.Columns{
		"encoding": graph.Text(encoding),
		"size":     graph.Int(int64(len(b))),
		"digest":   graph.Text(ir.Digest(ir.DomainBody, b)),
		"data":     graph.Blob(data),
	}), nil
}

// bodyFromRow decodes a loaded bodies row and checks its digest.
func bodyFromRow(row *graph.Row) ([]byte, error) {
	if row == nil {
		return nil, nil
	}
	b, err := decodeBody(row.Text("encoding"), row.Blob("data"))
	if err != nil {
		return nil, fmt.Errorf("body %d: %w", row.ID, err)
	}
	if b == nil {
		b = []byte{}
	}
	if int64(len(b)) != row.Int("size") {
		return nil, fmt.Errorf("body %d: size %d, stored %d", row.ID, len(b), row.Int("size"))
	}
	if got := ir.Digest(ir.DomainBody, b); got != row.Text("digest") {
		return nil, fmt.Errorf("body %d: digest mismatch", row.ID)
	}
	return b, nil
}

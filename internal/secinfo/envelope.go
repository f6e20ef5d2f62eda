package secinfo

import (
	"encoding/base64"
	"strings"
)

// DecodeEnvelope decodes a record from the host's text envelope: the
// object stream, base64 encoded. Text that is not base64, an empty payload,
// or a root written under an interface other than SupportsIID is
// rejected with UNSUPPORTED_ENVELOPE before the record is parsed.
func DecodeEnvelope(s string) (*TransportSecurityInfo, error) {
	raw, err := UnwrapEnvelope(s)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// UnwrapEnvelope returns the object stream carried by the envelope without
// parsing the record.
func UnwrapEnvelope(s string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, &DecodeError{
			Code:    ErrCodeUnsupportedEnvelope,
			Message: "envelope is not base64",
			Err:     err,
		}
	}
	if len(raw) == 0 {
		return nil, &DecodeError{
			Code:    ErrCodeUnsupportedEnvelope,
			Message: "empty envelope",
		}
	}
	if len(raw) >= 2*idSize {
		r := &reader{buf: raw[idSize : 2*idSize]}
		iid, _ := r.id("interface id")
		if iid != SupportsIID {
			return nil, &DecodeError{
				Code:     ErrCodeUnsupportedEnvelope,
				Node:     nodeRoot,
				Offset:   idSize,
				Expected: SupportsIID,
				Actual:   iid,
				Message:  "root not written as a generic object",
			}
		}
	}
	return raw, nil
}

// EncodeEnvelope encodes r and wraps it in the host's text envelope.
func EncodeEnvelope(r *TransportSecurityInfo) (string, error) {
	raw, err := Encode(r)
	if err != nil {
		return "", err
	}
	return WrapEnvelope(raw), nil
}

// WrapEnvelope wraps an already encoded object stream.
func WrapEnvelope(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

package ir

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing and for
// byte-stable CLI output.
//
// v is first marshaled with encoding/json (so struct tags, Values and
// json.Marshaler implementations apply) and then transformed by the JCS
// canonicalizer: object keys are sorted by UTF-16 code units, whitespace is
// removed, and numbers use the ECMAScript shortest form.
func MarshalCanonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical: %w", err)
	}
	return out, nil
}

// ValueMap is a column map that marshals each Value through MarshalValue.
type ValueMap map[string]Value

// MarshalJSON implements json.Marshaler for ValueMap.
func (m ValueMap) MarshalJSON() ([]byte, error) {
	obj := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		b, err := MarshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", k, err)
		}
		obj[k] = b
	}
	return json.Marshal(obj)
}

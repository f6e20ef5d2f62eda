package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Value is a sealed interface representing the scalar values a column can hold.
// Only Null, Bool, Int, Real, Text, and Blob implement it. The set mirrors the
// SQLite storage classes, so every Value round-trips through the store without
// conversion loss.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents SQL NULL.
type Null struct{}

func (Null) irValue() {}

// Bool is stored as INTEGER 0/1 and read back as Int.
type Bool bool

func (Bool) irValue() {}

// Int represents an INTEGER column value.
type Int int64

func (Int) irValue() {}

// Real represents a REAL column value.
type Real float64

func (Real) irValue() {}

// Text represents a TEXT column value.
type Text string

func (Text) irValue() {}

// Blob represents a BLOB column value.
type Blob []byte

func (Blob) irValue() {}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Arg converts a Value into a database/sql argument.
func Arg(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case Int:
		return int64(val)
	case Real:
		return float64(val)
	case Text:
		return string(val)
	case Blob:
		if val == nil {
			// go-sqlite3 binds a nil []byte as NULL; keep empty blobs non-null.
			return []byte{}
		}
		return []byte(val)
	default:
		panic(fmt.Sprintf("ir: unknown Value type %T", v))
	}
}

// FromDriver converts a value scanned from database/sql into a Value.
func FromDriver(src any) (Value, error) {
	switch val := src.(type) {
	case nil:
		return Null{}, nil
	case int64:
		return Int(val), nil
	case float64:
		return Real(val), nil
	case bool:
		return Bool(val), nil
	case string:
		return Text(val), nil
	case []byte:
		// Scanned buffers are reused by the driver; keep our own copy.
		return Blob(bytes.Clone(val)), nil
	case time.Time:
		return Text(val.UTC().Format(time.RFC3339Nano)), nil
	default:
		return nil, fmt.Errorf("unsupported driver value %T", src)
	}
}

// Key returns a string uniquely identifying v's type and content.
// Used to key caches of deduplicated values.
func Key(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "n"
	case Bool:
		if val {
			return "i1"
		}
		return "i0"
	case Int:
		return fmt.Sprintf("i%d", int64(val))
	case Real:
		return fmt.Sprintf("r%x", math.Float64bits(float64(val)))
	case Text:
		return "t" + string(val)
	case Blob:
		return "b" + string(val)
	default:
		panic(fmt.Sprintf("ir: unknown Value type %T", v))
	}
}

// Equal reports whether a and b hold the same type and content.
func Equal(a, b Value) bool {
	return Key(a) == Key(b)
}

// AsInt returns the integer held by v. Bool values convert to 0/1.
func AsInt(v Value) (int64, bool) {
	switch val := v.(type) {
	case Int:
		return int64(val), true
	case Bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsText returns the string held by v.
func AsText(v Value) (string, bool) {
	if val, ok := v.(Text); ok {
		return string(val), true
	}
	return "", false
}

// AsBlob returns the bytes held by v. Text values are returned as their bytes.
func AsBlob(v Value) ([]byte, bool) {
	switch val := v.(type) {
	case Blob:
		return []byte(val), true
	case Text:
		return []byte(val), true
	default:
		return nil, false
	}
}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalValue marshals a Value to JSON. Blobs encode as base64 strings.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for hashing.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Int:
		return json.Marshal(int64(val))
	case Real:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("non-finite real %v", float64(val))
		}
		return json.Marshal(float64(val))
	case Text:
		return json.Marshal(string(val))
	case Blob:
		return json.Marshal([]byte(val))
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

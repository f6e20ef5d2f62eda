// Package ir provides the scalar value representation shared by the graph
// engine, the store, and the capture layer.
//
// This package contains value types and serialization helpers only. All other
// internal packages may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: Null, Bool, Int, Real, Text, Blob
//   - Values convert losslessly to and from database/sql driver values
//   - Canonical JSON (RFC 8785) is the only serialization used for digests
package ir

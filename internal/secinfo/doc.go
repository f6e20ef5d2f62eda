// Package secinfo encodes and decodes the browser's serialized transport
// security info: connection state, the negotiated TLS status with the server
// certificate, and an optional failed certificate chain.
//
// The byte layout is a compatibility contract with the host's object stream
// and is reproduced exactly. Every structural node starts with a 16-byte
// component ID and a 16-byte interface ID; the root also carries a 16-byte
// magic ID before its fields. Integers are big-endian, booleans are one byte,
// optional nodes are preceded by a presence boolean, certificates are a
// u32 length followed by DER bytes, and the error message is a
// NUL-terminated UTF-16BE string.
//
// Decode consumes the whole buffer: a wrong identity, a short buffer, or a
// trailing byte is a *DecodeError, never a partial record. Callers that
// cannot decode a blob should keep the raw bytes instead.
package secinfo

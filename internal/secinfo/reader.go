package secinfo

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

// reader consumes fields from a buffer, tracking the offset for errors.
type reader struct {
	buf  []byte
	off  int
	node string
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) take(n int, what string) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, &DecodeError{
			Code:    ErrCodeTruncated,
			Node:    r.node,
			Offset:  r.off,
			Message: what,
		}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) u8(what string) (uint8, error) {
	b, err := r.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16(what string) (uint16, error) {
	b, err := r.take(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32(what string) (uint32, error) {
	b, err := r.take(4, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// bool reads one byte; any nonzero value is true.
func (r *reader) bool(what string) (bool, error) {
	v, err := r.u8(what)
	return v != 0, err
}

func (r *reader) id(what string) (ID, error) {
	b, err := r.take(idSize, what)
	if err != nil {
		return ID{}, err
	}
	var id ID
	id.Data1 = binary.BigEndian.Uint32(b[0:4])
	id.Data2 = binary.BigEndian.Uint16(b[4:6])
	id.Data3 = binary.BigEndian.Uint16(b[6:8])
	copy(id.Data4[:], b[8:16])
	return id, nil
}

// expect reads one ID and fails unless it equals want.
func (r *reader) expect(want ID, what string) error {
	start := r.off
	got, err := r.id(what)
	if err != nil {
		return err
	}
	if got != want {
		return &DecodeError{
			Code:     ErrCodeIdentityMismatch,
			Node:     r.node,
			Offset:   start,
			Expected: want,
			Actual:   got,
			Message:  what,
		}
	}
	return nil
}

// enter reads the identity pair that opens node.
func (r *reader) enter(node string, cid, iid ID) error {
	r.node = node
	if err := r.expect(cid, "component id"); err != nil {
		return err
	}
	return r.expect(iid, "interface id")
}

// bytes reads a u32 length and that many raw bytes. Empty runs decode as nil.
func (r *reader) bytes(what string) ([]byte, error) {
	n, err := r.u32(what + " length")
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(r.remaining()) {
		return nil, &DecodeError{
			Code:    ErrCodeTruncated,
			Node:    r.node,
			Offset:  r.off,
			Message: what,
		}
	}
	b, err := r.take(int(n), what)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, nil
	}
	return bytes.Clone(b), nil
}

// wstring reads UTF-16BE code units up to a 0x0000 terminator.
func (r *reader) wstring(what string) (string, error) {
	start := r.off
	end := -1
	for i := r.off; i+1 < len(r.buf); i += 2 {
		if r.buf[i] == 0 && r.buf[i+1] == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return "", &DecodeError{
			Code:    ErrCodeTruncated,
			Node:    r.node,
			Offset:  start,
			Message: what + " terminator",
		}
	}
	raw := r.buf[start:end]
	r.off = end + 2

	if err := checkSurrogates(raw); err != nil {
		return "", &DecodeError{
			Code:    ErrCodeInvalidString,
			Node:    r.node,
			Offset:  start,
			Message: what,
			Err:     err,
		}
	}
	s, err := wideString.NewDecoder().Bytes(raw)
	if err != nil {
		return "", &DecodeError{
			Code:    ErrCodeInvalidString,
			Node:    r.node,
			Offset:  start,
			Message: what,
			Err:     err,
		}
	}
	return string(s), nil
}

// checkSurrogates rejects unpaired UTF-16 surrogates, which the decoder
// would otherwise replace silently.
func checkSurrogates(raw []byte) error {
	for i := 0; i < len(raw); i += 2 {
		u := rune(binary.BigEndian.Uint16(raw[i:]))
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u >= 0xdc00 || i+3 >= len(raw) {
			return errUnpairedSurrogate
		}
		next := rune(binary.BigEndian.Uint16(raw[i+2:]))
		if next < 0xdc00 || next > 0xdfff {
			return errUnpairedSurrogate
		}
		i += 2
	}
	return nil
}

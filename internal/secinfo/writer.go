package secinfo

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// wideString is the host's wide string encoding: UTF-16, network order, no BOM.
var wideString = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// writer appends encoded fields to a buffer.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
		return
	}
	w.u8(0)
}

func (w *writer) id(id ID) {
	w.u32(id.Data1)
	w.u16(id.Data2)
	w.u16(id.Data3)
	w.buf = append(w.buf, id.Data4[:]...)
}

// pair writes a node's component and interface identity.
func (w *writer) pair(cid, iid ID) {
	w.id(cid)
	w.id(iid)
}

func (w *writer) bytes(b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return fmt.Errorf("byte run of %d bytes exceeds u32 length", len(b))
	}
	w.u32(uint32(len(b)))
	w.buf = append(w.buf, b...)
	return nil
}

// wstring writes s as UTF-16BE code units followed by a 0x0000 terminator.
func (w *writer) wstring(s string) error {
	if !utf8.ValidString(s) || strings.IndexByte(s, 0) >= 0 {
		return ErrInvalidString
	}
	encoded, err := wideString.NewEncoder().String(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	w.buf = append(w.buf, encoded...)
	w.u16(0)
	return nil
}

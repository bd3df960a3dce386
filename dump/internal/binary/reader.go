// Package binary provides position-tracked little-endian reads over a
// byte buffer, for parsing minidump structures.
package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"
)

// ErrShortBuffer is returned when a read runs past the end of the buffer.
var ErrShortBuffer = errors.New("binary: read past end of buffer")

// Reader reads little-endian values from a byte slice with position
// tracking and random access by offset.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data, positioned at the start.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the total buffer length.
func (r *Reader) Len() int {
	return len(r.data)
}

// Position returns the current byte offset.
func (r *Reader) Position() int {
	return r.pos
}

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.data) {
		return fmt.Errorf("binary: seek to %d outside buffer of %d bytes", off, len(r.data))
	}
	r.pos = off
	return nil
}

// ReadBytes reads exactly n bytes and advances the cursor. The returned
// slice aliases the underlying buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrShortBuffer
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadUTF16String reads a minidump string at the given offset: a uint32
// byte length followed by that many bytes of UTF-16LE text. The cursor is
// not moved.
func (r *Reader) ReadUTF16String(off int) (string, error) {
	sub := Reader{data: r.data}
	if err := sub.Seek(off); err != nil {
		return "", err
	}
	byteLen, err := sub.ReadU32()
	if err != nil {
		return "", err
	}
	if byteLen%2 != 0 {
		return "", fmt.Errorf("binary: odd UTF-16 byte length %d", byteLen)
	}
	raw, err := sub.ReadBytes(int(byteLen))
	if err != nil {
		return "", err
	}
	units := make([]uint16, byteLen/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[i*2:])
	}
	return string(utf16.Decode(units)), nil
}

// Package store persists chunks and their palettes in a LevelDB-backed
// store and provides the chunk-loading collaborator used for cross-chunk
// resolution during translation.
package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// buffer is a helper for writing binary data with convenient typed methods.
type buffer struct {
	bytes.Buffer
}

// newBuffer creates a new buffer.
func newBuffer() *buffer {
	return &buffer{}
}

// WriteInt64 writes an int64 in big-endian format.
func (b *buffer) WriteInt64(v int64) {
	_ = binary.Write(b, binary.BigEndian, v)
}

// WriteInt32 writes an int32 in big-endian format.
func (b *buffer) WriteInt32(v int32) {
	_ = binary.Write(b, binary.BigEndian, v)
}

// WriteFloat64 writes a float64 in big-endian IEEE 754 format.
func (b *buffer) WriteFloat64(v float64) {
	_ = binary.Write(b, binary.BigEndian, math.Float64bits(v))
}

// WriteBool writes a boolean as a byte (0 or 1).
func (b *buffer) WriteBool(v bool) {
	if v {
		_ = b.WriteByte(1)
	} else {
		_ = b.WriteByte(0)
	}
}

// WriteVarInt writes a variable-length integer.
func (b *buffer) WriteVarInt(v int64) {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, v)
	_, _ = b.Write(buf[:n])
}

// WriteString writes a string with its length as a varint.
func (b *buffer) WriteString(s string) {
	b.WriteVarInt(int64(len(s)))
	_, _ = b.Write([]byte(s))
}

// WriteBytes writes a byte slice with its length as a varint.
func (b *buffer) WriteBytes(data []byte) {
	b.WriteVarInt(int64(len(data)))
	_, _ = b.Write(data)
}

// reader is a helper for reading binary data with convenient typed methods.
type reader struct {
	r io.Reader
}

// newReader creates a new reader wrapping the given io.Reader.
func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

// ReadInt64 reads an int64 in big-endian format.
func (r *reader) ReadInt64() (int64, error) {
	var v int64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// ReadInt32 reads an int32 in big-endian format.
func (r *reader) ReadInt32() (int32, error) {
	var v int32
	err := binary.Read(r.r, binary.BigEndian, &v)
	return v, err
}

// ReadFloat64 reads a float64 in big-endian IEEE 754 format.
func (r *reader) ReadFloat64() (float64, error) {
	var v uint64
	err := binary.Read(r.r, binary.BigEndian, &v)
	return math.Float64frombits(v), err
}

// ReadByte reads a single byte.
func (r *reader) ReadByte() (byte, error) {
	b := make([]byte, 1)
	_, err := io.ReadFull(r.r, b)
	return b[0], err
}

// ReadBool reads a boolean (0 or 1).
func (r *reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// ReadVarInt reads a variable-length integer.
func (r *reader) ReadVarInt() (int64, error) {
	return binary.ReadVarint(r)
}

// ReadString reads a string with its length as a varint.
func (r *reader) ReadString() (string, error) {
	length, err := r.ReadVarInt()
	if err != nil {
		return "", err
	}
	if length < 0 || length > 1<<20 { // 1MB limit
		return "", fmt.Errorf("invalid string length: %d", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadBytes reads a byte slice with its length as a varint.
func (r *reader) ReadBytes() ([]byte, error) {
	length, err := r.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if length < 0 || length > 1<<24 { // 16MB limit
		return nil, fmt.Errorf("invalid byte array length: %d", length)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

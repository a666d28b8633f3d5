// Package buf implements the zero-copy-on-read, grow-on-write byte
// buffer layer that frame assembly and primitive (de)serialization are
// built on. It plays the role the teacher's pgwire.Reader/pgwire.Writer
// play for the Postgres wire format, generalized to an arbitrary
// tag+length+payload framing and a bounded chunk ring instead of a
// single bufio.Reader.
package buf

import "encoding/binary"

const growIncrement = 4096

// WriteBuffer is a grow-on-demand scratch buffer for building message
// payloads before they are handed to a WriteMessageBuffer. It never
// shrinks; Reset only rewinds the write position.
type WriteBuffer struct {
	data []byte
	pos  int
}

// NewWriteBuffer returns an empty WriteBuffer with a small initial
// capacity.
func NewWriteBuffer() *WriteBuffer {
	return &WriteBuffer{data: make([]byte, growIncrement)}
}

// Position returns the number of bytes written so far.
func (w *WriteBuffer) Position() int {
	return w.pos
}

// Reset rewinds the write position without releasing capacity.
func (w *WriteBuffer) Reset() {
	w.pos = 0
}

// Unwrap returns the bytes written so far. The returned slice aliases
// the buffer's storage and is only valid until the next write.
func (w *WriteBuffer) Unwrap() []byte {
	return w.data[:w.pos]
}

func (w *WriteBuffer) ensure(n int) {
	need := w.pos + n
	if need <= len(w.data) {
		return
	}
	grown := len(w.data) + growIncrement
	for grown < need {
		grown += growIncrement
	}
	next := make([]byte, grown)
	copy(next, w.data[:w.pos])
	w.data = next
}

// WriteU8 appends a single byte.
func (w *WriteBuffer) WriteU8(v uint8) {
	w.ensure(1)
	w.data[w.pos] = v
	w.pos++
}

// WriteI16 appends a big-endian int16.
func (w *WriteBuffer) WriteI16(v int16) {
	w.WriteU16(uint16(v))
}

// WriteU16 appends a big-endian uint16.
func (w *WriteBuffer) WriteU16(v uint16) {
	w.ensure(2)
	binary.BigEndian.PutUint16(w.data[w.pos:], v)
	w.pos += 2
}

// WriteI32 appends a big-endian int32.
func (w *WriteBuffer) WriteI32(v int32) {
	w.WriteU32(uint32(v))
}

// WriteU32 appends a big-endian uint32.
func (w *WriteBuffer) WriteU32(v uint32) {
	w.ensure(4)
	binary.BigEndian.PutUint32(w.data[w.pos:], v)
	w.pos += 4
}

// WriteI64 appends a big-endian int64.
func (w *WriteBuffer) WriteI64(v int64) {
	w.WriteU64(uint64(v))
}

// WriteU64 appends a big-endian uint64.
func (w *WriteBuffer) WriteU64(v uint64) {
	w.ensure(8)
	binary.BigEndian.PutUint64(w.data[w.pos:], v)
	w.pos += 8
}

// WriteBytes appends raw bytes with no length prefix.
func (w *WriteBuffer) WriteBytes(b []byte) {
	w.ensure(len(b))
	copy(w.data[w.pos:], b)
	w.pos += len(b)
}

// WriteString appends an i32 length prefix followed by the UTF-8 bytes
// of s.
func (w *WriteBuffer) WriteString(s string) {
	w.WriteI32(int32(len(s)))
	w.WriteBytes([]byte(s))
}

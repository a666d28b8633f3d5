package buf

import (
	"encoding/binary"

	"eqlwire/wire"
)

// FlatReadBuffer is a single-chunk, non-growing reader handed to codecs
// for decoding a value's narrowed byte range. It shares its underlying
// bytes with whatever produced it (typically a ReadMessageBuffer) and
// never copies on read.
type FlatReadBuffer struct {
	data []byte
	pos  int
}

// NewFlatReadBuffer wraps b for sequential reading. b is not copied.
func NewFlatReadBuffer(b []byte) *FlatReadBuffer {
	return &FlatReadBuffer{data: b}
}

// Len returns the number of unread bytes.
func (f *FlatReadBuffer) Len() int {
	return len(f.data) - f.pos
}

func (f *FlatReadBuffer) require(op string, n int) error {
	if f.Len() < n {
		return &wire.BufferError{Op: op, Msg: "overread"}
	}
	return nil
}

// ReadU8 reads a single byte.
func (f *FlatReadBuffer) ReadU8() (byte, error) {
	if err := f.require("read_u8", 1); err != nil {
		return 0, err
	}
	b := f.data[f.pos]
	f.pos++
	return b, nil
}

// ReadI16 reads a big-endian int16.
func (f *FlatReadBuffer) ReadI16() (int16, error) {
	v, err := f.ReadU16()
	return int16(v), err
}

// ReadU16 reads a big-endian uint16.
func (f *FlatReadBuffer) ReadU16() (uint16, error) {
	if err := f.require("read_u16", 2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(f.data[f.pos:])
	f.pos += 2
	return v, nil
}

// ReadI32 reads a big-endian int32.
func (f *FlatReadBuffer) ReadI32() (int32, error) {
	v, err := f.ReadU32()
	return int32(v), err
}

// ReadU32 reads a big-endian uint32.
func (f *FlatReadBuffer) ReadU32() (uint32, error) {
	if err := f.require("read_u32", 4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(f.data[f.pos:])
	f.pos += 4
	return v, nil
}

// ReadI64 reads a big-endian int64.
func (f *FlatReadBuffer) ReadI64() (int64, error) {
	v, err := f.ReadU64()
	return int64(v), err
}

// ReadU64 reads a big-endian uint64.
func (f *FlatReadBuffer) ReadU64() (uint64, error) {
	if err := f.require("read_u64", 8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(f.data[f.pos:])
	f.pos += 8
	return v, nil
}

// ReadBytes reads exactly n raw bytes. The returned slice aliases the
// buffer's storage.
func (f *FlatReadBuffer) ReadBytes(n int) ([]byte, error) {
	if err := f.require("read_bytes", n); err != nil {
		return nil, err
	}
	b := f.data[f.pos : f.pos+n]
	f.pos += n
	return b, nil
}

// ReadString reads an i32 length prefix followed by that many UTF-8
// bytes.
func (f *FlatReadBuffer) ReadString() (string, error) {
	n, err := f.ReadI32()
	if err != nil {
		return "", err
	}
	b, err := f.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadUUID reads a raw 16-byte UUID.
func (f *FlatReadBuffer) ReadUUID() ([16]byte, error) {
	var out [16]byte
	if err := f.require("read_uuid", 16); err != nil {
		return out, err
	}
	copy(out[:], f.data[f.pos:f.pos+16])
	f.pos += 16
	return out, nil
}

// Discard skips n bytes without returning them.
func (f *FlatReadBuffer) Discard(n int) error {
	if err := f.require("discard", n); err != nil {
		return err
	}
	f.pos += n
	return nil
}

// ConsumeAsString returns every remaining byte as a string.
func (f *FlatReadBuffer) ConsumeAsString() string {
	s := string(f.data[f.pos:])
	f.pos = len(f.data)
	return s
}

// Remaining returns every remaining byte without advancing the cursor.
func (f *FlatReadBuffer) Remaining() []byte {
	return f.data[f.pos:]
}

// Finished reports whether the entire buffer has been consumed.
func (f *FlatReadBuffer) Finished() bool {
	return f.pos == len(f.data)
}

package buf

import (
	"encoding/binary"

	"eqlwire/wire"
)

// ringCapacity bounds the number of queued chunks the buffer will hold
// before reporting backpressure to the caller.
const ringCapacity = 1024

// ReadMessageBuffer accumulates arbitrary TCP chunks and exposes a
// cursor over the logical frame stream, mirroring in spirit the
// teacher's pgwire.Reader but generalized from a single bufio.Reader to
// an explicit bounded chunk ring so a caller can pause the transport
// instead of letting a bufio.Reader block indefinitely on a slow peer.
type ReadMessageBuffer struct {
	chunks [][]byte
	offset int // read offset into chunks[0]
	length int // total unread bytes across chunks[0][offset:] and all following chunks

	msgType byte
	msgLen  int32
	unread  int
	ready   bool
}

// NewReadMessageBuffer returns an empty ReadMessageBuffer.
func NewReadMessageBuffer() *ReadMessageBuffer {
	return &ReadMessageBuffer{}
}

// Len reports the number of unread bytes currently buffered.
func (r *ReadMessageBuffer) Len() int {
	return r.length
}

// Feed appends a chunk arriving from the transport. It returns true
// when the ring has reached capacity, signaling that the transport
// should be paused until messages are consumed.
func (r *ReadMessageBuffer) Feed(chunk []byte) bool {
	if len(chunk) == 0 {
		return len(r.chunks) >= ringCapacity
	}
	r.chunks = append(r.chunks, chunk)
	r.length += len(chunk)
	return len(r.chunks) >= ringCapacity
}

func (r *ReadMessageBuffer) popFront() {
	r.chunks[0] = nil
	r.chunks = r.chunks[1:]
	r.offset = 0
}

// advance consumes n already-verified-available bytes from the front
// of the chunk queue without copying them anywhere.
func (r *ReadMessageBuffer) advance(n int) {
	for n > 0 {
		avail := len(r.chunks[0]) - r.offset
		if n < avail {
			r.offset += n
			r.length -= n
			return
		}
		n -= avail
		r.length -= avail
		r.popFront()
	}
}

// readInto copies exactly len(dst) bytes from the front of the queue,
// advancing the cursor. Caller must have already verified availability.
func (r *ReadMessageBuffer) readInto(dst []byte) {
	n := len(dst)
	pos := 0
	for pos < n {
		head := r.chunks[0][r.offset:]
		copied := copy(dst[pos:], head)
		pos += copied
		r.offset += copied
		r.length -= copied
		if r.offset == len(r.chunks[0]) {
			r.popFront()
		}
	}
}

// TakeMessage attempts to advance the current-message cursor: it reads
// the type tag if not yet read, then the length if not yet read, then
// reports whether the full frame is now present. State persists across
// calls that return false, so partial feeds compose correctly.
func (r *ReadMessageBuffer) TakeMessage() bool {
	if r.ready {
		return true
	}
	if r.msgType == 0 {
		if r.length < 1 {
			return false
		}
		var tag [1]byte
		r.readInto(tag[:])
		r.msgType = tag[0]
	}
	if r.msgLen == 0 {
		if r.length < 4 {
			return false
		}
		var lenBytes [4]byte
		r.readInto(lenBytes[:])
		r.msgLen = int32(binary.BigEndian.Uint32(lenBytes[:]))
		r.unread = int(r.msgLen) - 4
	}
	if r.unread <= r.length {
		r.ready = true
	}
	return r.ready
}

// TakeMessageType peeks the tag byte without discarding the message
// from the queue. It returns true only if the tag matches AND the full
// frame is available.
func (r *ReadMessageBuffer) TakeMessageType(tag byte) bool {
	if !r.TakeMessage() {
		return false
	}
	return r.msgType == tag
}

// GetMessageType returns the tag of the current message. Valid once
// the tag byte has been read (TakeMessage/TakeMessageType returned
// true, or at least consumed the first byte).
func (r *ReadMessageBuffer) GetMessageType() byte {
	return r.msgType
}

// PutMessage restores ready=false after a peek that chose not to
// consume the message, leaving the cached tag/length in place so a
// later TakeMessage call doesn't re-read them.
func (r *ReadMessageBuffer) PutMessage() {
	r.ready = false
}

// FinishMessage resets the current-message cursor. Callers must have
// already consumed exactly r.unread bytes of payload.
func (r *ReadMessageBuffer) FinishMessage() {
	r.msgType = 0
	r.msgLen = 0
	r.unread = 0
	r.ready = false
}

// DiscardMessage skips any remaining unread payload bytes and resets
// the cursor.
func (r *ReadMessageBuffer) DiscardMessage() error {
	if !r.ready {
		return &wire.BufferError{Op: "discard_message", Msg: "no message ready"}
	}
	if r.unread > 0 {
		r.advance(r.unread)
	}
	r.FinishMessage()
	return nil
}

// ConsumeMessage returns a fresh copy of the current message's payload
// and resets the cursor.
func (r *ReadMessageBuffer) ConsumeMessage() ([]byte, error) {
	if !r.ready {
		return nil, &wire.BufferError{Op: "consume_message", Msg: "no message ready"}
	}
	out := make([]byte, r.unread)
	r.readInto(out)
	r.FinishMessage()
	return out, nil
}

// ConsumeMessageInto hands off the current message's payload as a
// FlatReadBuffer, aliasing the underlying chunk (zero-copy) when the
// payload lies entirely within one chunk, and copying otherwise.
func (r *ReadMessageBuffer) ConsumeMessageInto() (*FlatReadBuffer, error) {
	if !r.ready {
		return nil, &wire.BufferError{Op: "consume_message_into", Msg: "no message ready"}
	}
	n := r.unread
	if n == 0 {
		r.FinishMessage()
		return NewFlatReadBuffer(nil), nil
	}
	if len(r.chunks) > 0 && r.offset+n <= len(r.chunks[0]) {
		slice := r.chunks[0][r.offset : r.offset+n]
		r.advance(n)
		r.FinishMessage()
		return NewFlatReadBuffer(slice), nil
	}
	out := make([]byte, n)
	r.readInto(out)
	r.FinishMessage()
	return NewFlatReadBuffer(out), nil
}

func (r *ReadMessageBuffer) checkRead(op string, size int) error {
	if !r.ready {
		return &wire.BufferError{Op: op, Msg: "no message ready"}
	}
	if r.unread < size {
		return &wire.BufferError{Op: op, Msg: "overread: not enough bytes remaining in message"}
	}
	if size > r.length {
		return &wire.BufferError{Op: op, Msg: "overread: not enough buffered bytes"}
	}
	return nil
}

// ReadU8 reads a single byte from the current message.
func (r *ReadMessageBuffer) ReadU8() (byte, error) {
	if err := r.checkRead("read_u8", 1); err != nil {
		return 0, err
	}
	var b [1]byte
	r.readInto(b[:])
	r.unread--
	return b[0], nil
}

// ReadI16 reads a big-endian int16 from the current message.
func (r *ReadMessageBuffer) ReadI16() (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

// ReadU16 reads a big-endian uint16 from the current message.
func (r *ReadMessageBuffer) ReadU16() (uint16, error) {
	if err := r.checkRead("read_u16", 2); err != nil {
		return 0, err
	}
	var b [2]byte
	r.readInto(b[:])
	r.unread -= 2
	return binary.BigEndian.Uint16(b[:]), nil
}

// ReadI32 reads a big-endian int32 from the current message.
func (r *ReadMessageBuffer) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

// ReadU32 reads a big-endian uint32 from the current message.
func (r *ReadMessageBuffer) ReadU32() (uint32, error) {
	if err := r.checkRead("read_u32", 4); err != nil {
		return 0, err
	}
	var b [4]byte
	r.readInto(b[:])
	r.unread -= 4
	return binary.BigEndian.Uint32(b[:]), nil
}

// ReadLenPrefixedBytes reads an i32 length followed by that many raw
// bytes from the current message.
func (r *ReadMessageBuffer) ReadLenPrefixedBytes() ([]byte, error) {
	n, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &wire.BufferError{Op: "read_len_prefixed_bytes", Msg: "negative length"}
	}
	if err := r.checkRead("read_len_prefixed_bytes", int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	r.readInto(out)
	r.unread -= int(n)
	return out, nil
}

// ReadString reads an i32 length prefix followed by that many UTF-8
// bytes from the current message.
func (r *ReadMessageBuffer) ReadString() (string, error) {
	b, err := r.ReadLenPrefixedBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadUUID reads a raw 16-byte UUID from the current message.
func (r *ReadMessageBuffer) ReadUUID() ([16]byte, error) {
	var out [16]byte
	if err := r.checkRead("read_uuid", 16); err != nil {
		return out, err
	}
	r.readInto(out[:])
	r.unread -= 16
	return out, nil
}

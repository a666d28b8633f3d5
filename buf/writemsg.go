package buf

import "eqlwire/wire"

// precomputed single-frame Sync and Flush messages: tag + 4-byte
// length (4, covering only the length field itself) and no payload.
var (
	syncFrame  = []byte{wire.MsgSync, 0, 0, 0, 4}
	flushFrame = []byte{wire.MsgFlush, 0, 0, 0, 4}
)

// WriteMessageBuffer wraps a WriteBuffer with frame bookkeeping:
// BeginMessage/EndMessage back-patch the four-byte length field the
// way the teacher's pgwire.Writer.beginMessage/finishMessage do, but
// exposed as a public two-phase API instead of being folded into every
// Write* method.
type WriteMessageBuffer struct {
	buf        *WriteBuffer
	open       bool
	frameStart int
}

// NewWriteMessageBuffer returns an empty WriteMessageBuffer.
func NewWriteMessageBuffer() *WriteMessageBuffer {
	return &WriteMessageBuffer{buf: NewWriteBuffer()}
}

// BeginMessage opens a new frame with the given tag. It fails if a
// message is already open.
func (w *WriteMessageBuffer) BeginMessage(tag byte) error {
	if w.open {
		return &wire.BufferError{Op: "begin_message", Msg: "a message is already open"}
	}
	w.buf.WriteU8(tag)
	w.frameStart = w.buf.Position()
	w.buf.WriteI32(0) // length placeholder
	w.open = true
	return nil
}

func (w *WriteMessageBuffer) requireOpen(op string) error {
	if !w.open {
		return &wire.BufferError{Op: op, Msg: "no message is open"}
	}
	return nil
}

// WriteU8 writes a byte into the open message.
func (w *WriteMessageBuffer) WriteU8(v uint8) error {
	if err := w.requireOpen("write_u8"); err != nil {
		return err
	}
	w.buf.WriteU8(v)
	return nil
}

// WriteI16 writes a big-endian int16 into the open message.
func (w *WriteMessageBuffer) WriteI16(v int16) error {
	if err := w.requireOpen("write_i16"); err != nil {
		return err
	}
	w.buf.WriteI16(v)
	return nil
}

// WriteU16 writes a big-endian uint16 into the open message.
func (w *WriteMessageBuffer) WriteU16(v uint16) error {
	if err := w.requireOpen("write_u16"); err != nil {
		return err
	}
	w.buf.WriteU16(v)
	return nil
}

// WriteI32 writes a big-endian int32 into the open message.
func (w *WriteMessageBuffer) WriteI32(v int32) error {
	if err := w.requireOpen("write_i32"); err != nil {
		return err
	}
	w.buf.WriteI32(v)
	return nil
}

// WriteU32 writes a big-endian uint32 into the open message.
func (w *WriteMessageBuffer) WriteU32(v uint32) error {
	if err := w.requireOpen("write_u32"); err != nil {
		return err
	}
	w.buf.WriteU32(v)
	return nil
}

// WriteString writes a length-prefixed UTF-8 string into the open
// message.
func (w *WriteMessageBuffer) WriteString(s string) error {
	if err := w.requireOpen("write_string"); err != nil {
		return err
	}
	w.buf.WriteString(s)
	return nil
}

// WriteBytes writes raw bytes into the open message with no length
// prefix.
func (w *WriteMessageBuffer) WriteBytes(b []byte) error {
	if err := w.requireOpen("write_bytes"); err != nil {
		return err
	}
	w.buf.WriteBytes(b)
	return nil
}

// EndMessage back-patches the length field and closes the frame. The
// length covers everything after the tag, including the length field's
// own four bytes.
func (w *WriteMessageBuffer) EndMessage() error {
	if err := w.requireOpen("end_message"); err != nil {
		return err
	}
	length := int32(w.buf.Position() - w.frameStart)
	data := w.buf.data
	writeI32At(data, w.frameStart, length)
	w.open = false
	return nil
}

func writeI32At(data []byte, pos int, v int32) {
	data[pos] = byte(v >> 24)
	data[pos+1] = byte(v >> 16)
	data[pos+2] = byte(v >> 8)
	data[pos+3] = byte(v)
}

// WriteSync appends a precomputed Sync frame. May only be called with
// no message open.
func (w *WriteMessageBuffer) WriteSync() error {
	if w.open {
		return &wire.BufferError{Op: "write_sync", Msg: "a message is open"}
	}
	w.buf.WriteBytes(syncFrame)
	return nil
}

// WriteFlush appends a precomputed Flush frame. May only be called
// with no message open.
func (w *WriteMessageBuffer) WriteFlush() error {
	if w.open {
		return &wire.BufferError{Op: "write_flush", Msg: "a message is open"}
	}
	w.buf.WriteBytes(flushFrame)
	return nil
}

// Unwrap returns the accumulated bytes. Fails if a message is open.
func (w *WriteMessageBuffer) Unwrap() ([]byte, error) {
	if w.open {
		return nil, &wire.BufferError{Op: "unwrap", Msg: "a message is open"}
	}
	return w.buf.Unwrap(), nil
}

// Reset rewinds the buffer for reuse.
func (w *WriteMessageBuffer) Reset() {
	w.buf.Reset()
	w.open = false
}

// Package codec interprets the server's type-descriptor blobs into a
// tree of encoders/decoders, caches them in a per-connection registry
// keyed by UUID, and invokes them to (de)serialize query arguments and
// results. It plays the role the teacher's executor/coerce.go and
// storage/types.go play for a fixed three-type SQL engine, generalized
// to an open, server-described type system.
package codec

import (
	"eqlwire/buf"

	"github.com/google/uuid"
)

// Codec encodes a Go value onto the wire and decodes wire bytes back
// into a Go value for exactly one schema type.
type Codec interface {
	// ID returns the UUID this codec is registered under.
	ID() uuid.UUID

	// Encode writes an i32 length prefix followed by v's wire payload
	// onto w.
	Encode(w *buf.WriteBuffer, v any) error

	// Decode reads a value from r, which is already narrowed to
	// exactly that value's byte range (the length prefix has already
	// been consumed by the caller).
	Decode(r *buf.FlatReadBuffer) (any, error)
}

// encodeLengthPrefixed writes fn's output into a scratch buffer, then
// emits an i32 length prefix followed by the scratch bytes onto w. Every
// codec's Encode is built on this so the i32-length-then-payload
// contract in spec section 4.2.3 can't be forgotten at a call site.
func encodeLengthPrefixed(w *buf.WriteBuffer, fn func(*buf.WriteBuffer) error) error {
	scratch := buf.NewWriteBuffer()
	if err := fn(scratch); err != nil {
		return err
	}
	payload := scratch.Unwrap()
	w.WriteI32(int32(len(payload)))
	w.WriteBytes(payload)
	return nil
}

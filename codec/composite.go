package codec

import (
	"fmt"

	"eqlwire/buf"
	"eqlwire/wire"

	"github.com/google/uuid"
)

// TupleCodec decodes a positional tuple into a []any in declaration
// order.
type TupleCodec struct {
	id    uuid.UUID
	elems []Codec
}

// NewTupleCodec builds a TupleCodec for the given element codecs.
func NewTupleCodec(id uuid.UUID, elems []Codec) *TupleCodec {
	return &TupleCodec{id: id, elems: elems}
}

func (c *TupleCodec) ID() uuid.UUID { return c.id }

func (c *TupleCodec) Encode(w *buf.WriteBuffer, v any) error {
	values, ok := v.([]any)
	if !ok {
		return wrongType("tuple", v)
	}
	if len(values) != len(c.elems) {
		return &wire.BufferError{Op: "encode", Msg: fmt.Sprintf("tuple: expected %d elements, got %d", len(c.elems), len(values))}
	}
	return encodeLengthPrefixed(w, func(inner *buf.WriteBuffer) error {
		return encodeElements(inner, func(i int) Codec { return c.elems[i] }, values)
	})
}

func (c *TupleCodec) Decode(r *buf.FlatReadBuffer) (any, error) {
	return decodeElements(r, func(i int) (Codec, error) {
		if i >= len(c.elems) {
			return nil, &wire.BufferError{Op: "decode", Msg: "tuple: too many elements on the wire"}
		}
		return c.elems[i], nil
	})
}

// NamedTupleCodec decodes a named tuple into a map keyed by field name.
type NamedTupleCodec struct {
	id    uuid.UUID
	names []string
	elems []Codec
}

// NewNamedTupleCodec builds a NamedTupleCodec for the given field
// names and codecs, in matching order.
func NewNamedTupleCodec(id uuid.UUID, names []string, elems []Codec) *NamedTupleCodec {
	return &NamedTupleCodec{id: id, names: names, elems: elems}
}

func (c *NamedTupleCodec) ID() uuid.UUID { return c.id }

func (c *NamedTupleCodec) Encode(w *buf.WriteBuffer, v any) error {
	fields, ok := v.(map[string]any)
	if !ok {
		return wrongType("named_tuple", v)
	}
	values := make([]any, len(c.names))
	for i, name := range c.names {
		values[i] = fields[name]
	}
	return encodeLengthPrefixed(w, func(inner *buf.WriteBuffer) error {
		return encodeElements(inner, func(i int) Codec { return c.elems[i] }, values)
	})
}

func (c *NamedTupleCodec) Decode(r *buf.FlatReadBuffer) (any, error) {
	values, err := decodeElements(r, func(i int) (Codec, error) {
		if i >= len(c.elems) {
			return nil, &wire.BufferError{Op: "decode", Msg: "named_tuple: too many elements on the wire"}
		}
		return c.elems[i], nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(c.names))
	for i, name := range c.names {
		if i < len(values) {
			out[name] = values[i]
		}
	}
	return out, nil
}

// ArrayCodec decodes a homogeneous array into a []any. Multi-dimension
// arrays are flattened to a single dimension; the declared dimension
// count is preserved on the codec but not reified into nested slices.
type ArrayCodec struct {
	id   uuid.UUID
	elem Codec
	dims int32
}

// NewArrayCodec builds an ArrayCodec over elem with the given
// declared dimension count.
func NewArrayCodec(id uuid.UUID, elem Codec, dims int32) *ArrayCodec {
	return &ArrayCodec{id: id, elem: elem, dims: dims}
}

func (c *ArrayCodec) ID() uuid.UUID { return c.id }

func (c *ArrayCodec) Encode(w *buf.WriteBuffer, v any) error {
	values, ok := v.([]any)
	if !ok {
		return wrongType("array", v)
	}
	return encodeLengthPrefixed(w, func(inner *buf.WriteBuffer) error {
		return encodeElements(inner, func(int) Codec { return c.elem }, values)
	})
}

func (c *ArrayCodec) Decode(r *buf.FlatReadBuffer) (any, error) {
	return decodeElements(r, func(int) (Codec, error) { return c.elem, nil })
}

// SetCodec decodes a set into a []any, structurally identical to
// ArrayCodec but registered under its own descriptor kind since sets
// carry no dimension metadata.
type SetCodec struct {
	id   uuid.UUID
	elem Codec
}

// NewSetCodec builds a SetCodec over elem.
func NewSetCodec(id uuid.UUID, elem Codec) *SetCodec {
	return &SetCodec{id: id, elem: elem}
}

func (c *SetCodec) ID() uuid.UUID { return c.id }

func (c *SetCodec) Encode(w *buf.WriteBuffer, v any) error {
	values, ok := v.([]any)
	if !ok {
		return wrongType("set", v)
	}
	return encodeLengthPrefixed(w, func(inner *buf.WriteBuffer) error {
		return encodeElements(inner, func(int) Codec { return c.elem }, values)
	})
}

func (c *SetCodec) Decode(r *buf.FlatReadBuffer) (any, error) {
	return decodeElements(r, func(int) (Codec, error) { return c.elem, nil })
}

package codec

import (
	"eqlwire/buf"
	"eqlwire/wire"

	"github.com/google/uuid"
)

// ObjectField describes one field of an object shape descriptor.
type ObjectField struct {
	Flags byte
	Name  string
	Codec Codec
}

// Implicit marks a field the server includes without it being
// explicitly requested (e.g. an implicit id).
func (f ObjectField) Implicit() bool { return f.Flags&0x1 != 0 }

// Object is the decoded form of a server-described shape: field names
// and values held as parallel slices in declaration order, the same
// shape the teacher's storage.Row uses for column values (an ID plus a
// values slice addressed by ordinal) generalized to named fields.
type Object struct {
	Fields []string
	Values []any
}

// Get returns the value of the named field and whether it was present.
func (o Object) Get(name string) (any, bool) {
	for i, f := range o.Fields {
		if f == name {
			return o.Values[i], true
		}
	}
	return nil, false
}

// ObjectCodec decodes a server-described object shape into an Object.
type ObjectCodec struct {
	id     uuid.UUID
	fields []ObjectField
}

// NewObjectCodec builds an ObjectCodec for the given fields, in
// declaration order.
func NewObjectCodec(id uuid.UUID, fields []ObjectField) *ObjectCodec {
	return &ObjectCodec{id: id, fields: fields}
}

func (c *ObjectCodec) ID() uuid.UUID { return c.id }

func (c *ObjectCodec) Encode(w *buf.WriteBuffer, v any) error {
	obj, ok := v.(Object)
	if !ok {
		return wrongType("object", v)
	}
	values := make([]any, len(c.fields))
	for i, f := range c.fields {
		val, _ := obj.Get(f.Name)
		values[i] = val
	}
	return encodeLengthPrefixed(w, func(inner *buf.WriteBuffer) error {
		return encodeElements(inner, func(i int) Codec { return c.fields[i].Codec }, values)
	})
}

func (c *ObjectCodec) Decode(r *buf.FlatReadBuffer) (any, error) {
	values, err := decodeElements(r, func(i int) (Codec, error) {
		if i >= len(c.fields) {
			return nil, &wire.BufferError{Op: "decode", Msg: "object: too many fields on the wire"}
		}
		return c.fields[i].Codec, nil
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return Object{Fields: names, Values: values}, nil
}

package codec

import (
	"eqlwire/buf"
	"eqlwire/wire"

	"github.com/google/uuid"
)

// EnumCodec decodes an enum value's member name as a plain string,
// validating it against the declared member set.
type EnumCodec struct {
	id      uuid.UUID
	members []string
}

// NewEnumCodec builds an EnumCodec over the given member names.
func NewEnumCodec(id uuid.UUID, members []string) *EnumCodec {
	return &EnumCodec{id: id, members: members}
}

func (c *EnumCodec) ID() uuid.UUID { return c.id }

func (c *EnumCodec) isMember(s string) bool {
	for _, m := range c.members {
		if m == s {
			return true
		}
	}
	return false
}

func (c *EnumCodec) Encode(w *buf.WriteBuffer, v any) error {
	s, ok := v.(string)
	if !ok {
		return wrongType("enum", v)
	}
	if !c.isMember(s) {
		return &wire.BufferError{Op: "encode", Msg: "enum: " + s + " is not a declared member"}
	}
	return encodeLengthPrefixed(w, func(inner *buf.WriteBuffer) error {
		inner.WriteBytes([]byte(s))
		return nil
	})
}

func (c *EnumCodec) Decode(r *buf.FlatReadBuffer) (any, error) {
	s := r.ConsumeAsString()
	if !c.isMember(s) {
		return nil, &wire.BufferError{Op: "decode", Msg: "enum: " + s + " is not a declared member"}
	}
	return s, nil
}

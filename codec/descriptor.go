package codec

import (
	"eqlwire/buf"
	"eqlwire/wire"

	"github.com/google/uuid"
)

// descriptorKind identifies one entry in a type-descriptor blob.
type descriptorKind byte

const (
	kindBaseScalar descriptorKind = iota
	kindScalar
	kindTuple
	kindNamedTuple
	kindArray
	kindSet
	kindEnum
	kindObjectShape
	kindNull
)

// NullCodec decodes the empty/void type: any value decodes to nil, and
// encoding always writes a zero-length payload.
var NullCodec = newScalar("std::null",
	func(w *buf.WriteBuffer, v any) error {
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		return nil, nil
	},
)

// BuildCodec reads a sequence of self-delimited type descriptors from
// data, registering each resulting codec into reg under its UUID as it
// goes. Later descriptors may reference UUIDs registered earlier in the
// same call, or any built-in base scalar. The last descriptor's codec
// is returned as the top-level codec for the query's input or output.
func BuildCodec(reg *Registry, data []byte) (Codec, error) {
	r := buf.NewFlatReadBuffer(data)
	var last Codec

	for r.Len() > 0 {
		kindByte, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		rawID, err := r.ReadUUID()
		if err != nil {
			return nil, err
		}
		id := uuid.UUID(rawID)

		var built Codec
		switch descriptorKind(kindByte) {
		case kindBaseScalar:
			c, ok := reg.Get(id)
			if !ok {
				return nil, &wire.ProtocolError{Msg: "base scalar descriptor references unknown built-in type " + id.String()}
			}
			built = c

		case kindScalar:
			baseRaw, err := r.ReadUUID()
			if err != nil {
				return nil, err
			}
			base, err := reg.MustGet(uuid.UUID(baseRaw))
			if err != nil {
				return nil, &wire.ProtocolError{Msg: err.Error()}
			}
			built = base

		case kindTuple:
			n, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			elems := make([]Codec, n)
			for i := range elems {
				elemRaw, err := r.ReadUUID()
				if err != nil {
					return nil, err
				}
				elems[i], err = reg.MustGet(uuid.UUID(elemRaw))
				if err != nil {
					return nil, &wire.ProtocolError{Msg: err.Error()}
				}
			}
			built = NewTupleCodec(id, elems)

		case kindNamedTuple:
			n, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			names := make([]string, n)
			elems := make([]Codec, n)
			for i := range names {
				names[i], err = r.ReadString()
				if err != nil {
					return nil, err
				}
				elemRaw, err := r.ReadUUID()
				if err != nil {
					return nil, err
				}
				elems[i], err = reg.MustGet(uuid.UUID(elemRaw))
				if err != nil {
					return nil, &wire.ProtocolError{Msg: err.Error()}
				}
			}
			built = NewNamedTupleCodec(id, names, elems)

		case kindArray:
			elemRaw, err := r.ReadUUID()
			if err != nil {
				return nil, err
			}
			elem, err := reg.MustGet(uuid.UUID(elemRaw))
			if err != nil {
				return nil, &wire.ProtocolError{Msg: err.Error()}
			}
			dims, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			built = NewArrayCodec(id, elem, int32(dims))

		case kindSet:
			elemRaw, err := r.ReadUUID()
			if err != nil {
				return nil, err
			}
			elem, err := reg.MustGet(uuid.UUID(elemRaw))
			if err != nil {
				return nil, &wire.ProtocolError{Msg: err.Error()}
			}
			built = NewSetCodec(id, elem)

		case kindEnum:
			n, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			members := make([]string, n)
			for i := range members {
				members[i], err = r.ReadString()
				if err != nil {
					return nil, err
				}
			}
			built = NewEnumCodec(id, members)

		case kindObjectShape:
			n, err := r.ReadU16()
			if err != nil {
				return nil, err
			}
			fields := make([]ObjectField, n)
			for i := range fields {
				flags, err := r.ReadU8()
				if err != nil {
					return nil, err
				}
				name, err := r.ReadString()
				if err != nil {
					return nil, err
				}
				fieldRaw, err := r.ReadUUID()
				if err != nil {
					return nil, err
				}
				fieldCodec, err := reg.MustGet(uuid.UUID(fieldRaw))
				if err != nil {
					return nil, &wire.ProtocolError{Msg: err.Error()}
				}
				fields[i] = ObjectField{Flags: flags, Name: name, Codec: fieldCodec}
			}
			built = NewObjectCodec(id, fields)

		case kindNull:
			built = NullCodec

		default:
			return nil, &wire.ProtocolError{Msg: "unknown descriptor kind"}
		}

		reg.Register(id, built)
		last = built
	}

	if last == nil {
		return nil, &wire.ProtocolError{Msg: "empty type-descriptor blob"}
	}
	return last, nil
}

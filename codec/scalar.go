package codec

import (
	"fmt"
	"math"

	"eqlwire/buf"
	"eqlwire/wire"

	"github.com/google/uuid"
)

// baseScalarNamespace roots the deterministic UUIDs assigned to the
// built-in base scalar types, the same way a schema server would hand
// out stable type ids per scalar name. Deriving them from a namespace
// UUID (RFC 4122 §4.3) rather than hand-picking hex constants keeps
// them reproducible and collision-free against server-assigned ids for
// non-base types.
var baseScalarNamespace = uuid.MustParse("b807f00d-0000-4000-8000-000000000000")

func baseScalarID(name string) uuid.UUID {
	return uuid.NewSHA1(baseScalarNamespace, []byte(name))
}

type simpleCodec struct {
	id     uuid.UUID
	encode func(*buf.WriteBuffer, any) error
	decode func(*buf.FlatReadBuffer) (any, error)
}

func (c *simpleCodec) ID() uuid.UUID { return c.id }

func (c *simpleCodec) Encode(w *buf.WriteBuffer, v any) error {
	return encodeLengthPrefixed(w, func(scratch *buf.WriteBuffer) error {
		return c.encode(scratch, v)
	})
}

func (c *simpleCodec) Decode(r *buf.FlatReadBuffer) (any, error) {
	return c.decode(r)
}

func newScalar(name string, encode func(*buf.WriteBuffer, any) error, decode func(*buf.FlatReadBuffer) (any, error)) *simpleCodec {
	return &simpleCodec{id: baseScalarID(name), encode: encode, decode: decode}
}

// baseScalars lists every built-in scalar codec, registered by
// NewRegistry at construction time.
var baseScalars []Codec

func init() {
	baseScalars = []Codec{
		Int16Codec, Int32Codec, Int64Codec,
		Float32Codec, Float64Codec,
		StrCodec, BoolCodec, BytesCodec,
		UUIDCodec,
		DateTimeCodec, LocalDateTimeCodec, LocalDateCodec, LocalTimeCodec, DurationCodec,
		BigIntCodec, DecimalCodec, JSONCodec,
		NullCodec,
	}
}

func wrongType(name string, v any) error {
	return &wire.BufferError{Op: "encode", Msg: fmt.Sprintf("%s codec cannot encode %T", name, v)}
}

// Int16Codec encodes/decodes std::int16 as a Go int16.
var Int16Codec = newScalar("std::int16",
	func(w *buf.WriteBuffer, v any) error {
		n, ok := v.(int16)
		if !ok {
			return wrongType("int16", v)
		}
		w.WriteI16(n)
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		return r.ReadI16()
	},
)

// Int32Codec encodes/decodes std::int32 as a Go int32.
var Int32Codec = newScalar("std::int32",
	func(w *buf.WriteBuffer, v any) error {
		n, ok := v.(int32)
		if !ok {
			return wrongType("int32", v)
		}
		w.WriteI32(n)
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		return r.ReadI32()
	},
)

// Int64Codec encodes/decodes std::int64 as a Go int64 — a native
// 64-bit round trip, unlike the 32-bit-split-with-float-fallback the
// original client used (see design notes).
var Int64Codec = newScalar("std::int64",
	func(w *buf.WriteBuffer, v any) error {
		n, ok := v.(int64)
		if !ok {
			return wrongType("int64", v)
		}
		w.WriteI64(n)
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		return r.ReadI64()
	},
)

// Float32Codec encodes/decodes std::float32 as a Go float32.
var Float32Codec = newScalar("std::float32",
	func(w *buf.WriteBuffer, v any) error {
		f, ok := v.(float32)
		if !ok {
			return wrongType("float32", v)
		}
		w.WriteU32(math.Float32bits(f))
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		bits, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(bits), nil
	},
)

// Float64Codec encodes/decodes std::float64 as a Go float64.
var Float64Codec = newScalar("std::float64",
	func(w *buf.WriteBuffer, v any) error {
		f, ok := v.(float64)
		if !ok {
			return wrongType("float64", v)
		}
		w.WriteU64(math.Float64bits(f))
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		bits, err := r.ReadU64()
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(bits), nil
	},
)

// StrCodec encodes/decodes std::str as a Go string: raw UTF-8 bytes,
// with the whole value's length already conveyed by the outer i32
// length prefix.
var StrCodec = newScalar("std::str",
	func(w *buf.WriteBuffer, v any) error {
		s, ok := v.(string)
		if !ok {
			return wrongType("str", v)
		}
		w.WriteBytes([]byte(s))
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		return r.ConsumeAsString(), nil
	},
)

// BoolCodec encodes/decodes std::bool as a single 0/1 byte.
var BoolCodec = newScalar("std::bool",
	func(w *buf.WriteBuffer, v any) error {
		b, ok := v.(bool)
		if !ok {
			return wrongType("bool", v)
		}
		if b {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		b, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	},
)

// BytesCodec encodes/decodes std::bytes as a raw []byte payload.
var BytesCodec = newScalar("std::bytes",
	func(w *buf.WriteBuffer, v any) error {
		b, ok := v.([]byte)
		if !ok {
			return wrongType("bytes", v)
		}
		w.WriteBytes(b)
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		out := make([]byte, r.Len())
		copy(out, r.Remaining())
		return out, r.Discard(r.Len())
	},
)

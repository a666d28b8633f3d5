package codec

import (
	"math/big"

	"eqlwire/buf"
	"eqlwire/wire"
)

// BigIntCodec encodes/decodes std::bigint as a sign byte (0 for
// non-negative, 1 for negative) followed by the big-endian magnitude,
// decoding to a *big.Int.
var BigIntCodec = newScalar("std::bigint",
	func(w *buf.WriteBuffer, v any) error {
		n, ok := v.(*big.Int)
		if !ok {
			return wrongType("bigint", v)
		}
		if n.Sign() < 0 {
			w.WriteU8(1)
		} else {
			w.WriteU8(0)
		}
		w.WriteBytes(n.Bytes())
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		sign, err := r.ReadU8()
		if err != nil {
			return nil, err
		}
		mag := make([]byte, r.Len())
		copy(mag, r.Remaining())
		if err := r.Discard(r.Len()); err != nil {
			return nil, err
		}
		n := new(big.Int).SetBytes(mag)
		if sign == 1 {
			n.Neg(n)
		}
		return n, nil
	},
)

// DecimalCodec encodes/decodes std::decimal as its base-10 ASCII
// representation, decoding to a *big.Rat. This is a documented
// approximation: a wire format built on IEEE-754-style digit groups
// would avoid the string round trip, but big.Rat's exact rational
// arithmetic combined with plain-text transport keeps this codec
// simple and exact for the values this client will actually see.
var DecimalCodec = newScalar("std::decimal",
	func(w *buf.WriteBuffer, v any) error {
		n, ok := v.(*big.Rat)
		if !ok {
			return wrongType("decimal", v)
		}
		w.WriteBytes([]byte(n.RatString()))
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		s := r.ConsumeAsString()
		n, ok := new(big.Rat).SetString(s)
		if !ok {
			return nil, &wire.BufferError{Op: "decode", Msg: "decimal: malformed value " + s}
		}
		return n, nil
	},
)

package codec

import (
	"eqlwire/buf"
	"eqlwire/wire"
)

// encodeElements writes a composite value's inner envelope: a u32
// element count followed by each element's sub-frame. A nil element
// becomes a bare -1 length marker; every other element is delegated to
// elemCodec, whose Encode already emits the length-prefixed sub-frame.
func encodeElements(inner *buf.WriteBuffer, elemCodec func(i int) Codec, values []any) error {
	inner.WriteU32(uint32(len(values)))
	for i, v := range values {
		if v == nil {
			inner.WriteI32(-1)
			continue
		}
		target := elemCodec(i)
		coerced, err := Coerce(target, v)
		if err != nil {
			return err
		}
		if err := target.Encode(inner, coerced); err != nil {
			return err
		}
	}
	return nil
}

// decodeElements reads a composite value's inner envelope back into a
// slice of decoded elements (nil for a -1 length marker).
func decodeElements(r *buf.FlatReadBuffer, elemCodec func(i int) (Codec, error)) ([]any, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	values := make([]any, count)
	for i := 0; i < int(count); i++ {
		n, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		if n == -1 {
			continue
		}
		if n < 0 {
			return nil, &wire.BufferError{Op: "decode_elements", Msg: "negative element length"}
		}
		elemBytes, err := r.ReadBytes(int(n))
		if err != nil {
			return nil, err
		}
		c, err := elemCodec(i)
		if err != nil {
			return nil, err
		}
		v, err := c.Decode(buf.NewFlatReadBuffer(elemBytes))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

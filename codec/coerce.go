package codec

import (
	"fmt"
	"math"
)

// Coerce converts a plain Go literal to the type target's Encode
// expects, in the manner of the teacher's executor.coerceLiteral: a
// small closed set of widening/narrowing conversions between the Go
// types callers naturally reach for (int, float64, ...) and the exact
// types each codec's Encode type-asserts against. Integer targets
// reject out-of-range and fractional values with an error; float
// targets accept any supported numeric input, and narrowing a float64
// to float32 may round. Values of any other type, and values for
// non-numeric codecs, are returned unchanged, leaving the codec's own
// type assertion to report a mismatch.
func Coerce(target Codec, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch target {
	case Int16Codec:
		return coerceInt(v, math.MinInt16, math.MaxInt16, func(n int64) any { return int16(n) })
	case Int32Codec:
		return coerceInt(v, math.MinInt32, math.MaxInt32, func(n int64) any { return int32(n) })
	case Int64Codec:
		return coerceInt(v, math.MinInt64, math.MaxInt64, func(n int64) any { return n })
	case Float32Codec:
		return coerceFloat(v, func(f float64) any { return float32(f) })
	case Float64Codec:
		return coerceFloat(v, func(f float64) any { return f })
	default:
		return v, nil
	}
}

func coerceInt(v any, min, max int64, wrap func(int64) any) (any, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("codec: cannot coerce non-integral %v to an integer scalar", x)
		}
		n = int64(x)
	default:
		return v, nil // let the codec's own type assertion report the mismatch
	}
	if n < min || n > max {
		return nil, fmt.Errorf("codec: %d overflows the target integer scalar", n)
	}
	return wrap(n), nil
}

func coerceFloat(v any, wrap func(float64) any) (any, error) {
	switch x := v.(type) {
	case float32:
		return wrap(float64(x)), nil
	case float64:
		return wrap(x), nil
	case int:
		return wrap(float64(x)), nil
	case int64:
		return wrap(float64(x)), nil
	default:
		return v, nil
	}
}

package codec

import (
	"time"

	"eqlwire/buf"
)

// wireEpoch is the reference point for every temporal scalar's
// microsecond/day offset, matching the convention of using a fixed
// epoch rather than the Unix epoch to keep offsets small for
// near-present dates.
var wireEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// LocalDateTime marks a timestamp with no associated time zone,
// distinguishing it from DateTime (which is always UTC) even though
// both are backed by the same wire layout.
type LocalDateTime time.Time

// LocalDate represents a calendar date with no time-of-day or zone
// component.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// LocalTime represents a time-of-day with no date or zone component,
// as a duration since midnight.
type LocalTime time.Duration

// DateTimeCodec encodes/decodes std::datetime as microseconds since
// wireEpoch, decoding to a UTC time.Time.
var DateTimeCodec = newScalar("std::datetime",
	func(w *buf.WriteBuffer, v any) error {
		t, ok := v.(time.Time)
		if !ok {
			return wrongType("datetime", v)
		}
		w.WriteI64(t.UTC().Sub(wireEpoch).Microseconds())
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		micros, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		return wireEpoch.Add(time.Duration(micros) * time.Microsecond), nil
	},
)

// LocalDateTimeCodec encodes/decodes std::cal::local_datetime with the
// same wire layout as DateTime, decoding to the distinct LocalDateTime
// type so callers can't accidentally treat it as zone-aware.
var LocalDateTimeCodec = newScalar("std::cal::local_datetime",
	func(w *buf.WriteBuffer, v any) error {
		t, ok := v.(LocalDateTime)
		if !ok {
			return wrongType("local_datetime", v)
		}
		w.WriteI64(time.Time(t).Sub(wireEpoch).Microseconds())
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		micros, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		return LocalDateTime(wireEpoch.Add(time.Duration(micros) * time.Microsecond)), nil
	},
)

// LocalDateCodec encodes/decodes std::cal::local_date as days since
// wireEpoch.
var LocalDateCodec = newScalar("std::cal::local_date",
	func(w *buf.WriteBuffer, v any) error {
		d, ok := v.(LocalDate)
		if !ok {
			return wrongType("local_date", v)
		}
		t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
		days := int32(t.Sub(wireEpoch).Hours() / 24)
		w.WriteI32(days)
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		days, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		t := wireEpoch.AddDate(0, 0, int(days))
		return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
	},
)

// LocalTimeCodec encodes/decodes std::cal::local_time as microseconds
// since midnight.
var LocalTimeCodec = newScalar("std::cal::local_time",
	func(w *buf.WriteBuffer, v any) error {
		lt, ok := v.(LocalTime)
		if !ok {
			return wrongType("local_time", v)
		}
		w.WriteI64(time.Duration(lt).Microseconds())
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		micros, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		return LocalTime(time.Duration(micros) * time.Microsecond), nil
	},
)

// DurationCodec encodes/decodes std::duration as microseconds, exposed
// as a native time.Duration (nanosecond-precision superset).
var DurationCodec = newScalar("std::duration",
	func(w *buf.WriteBuffer, v any) error {
		d, ok := v.(time.Duration)
		if !ok {
			return wrongType("duration", v)
		}
		w.WriteI64(d.Microseconds())
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		micros, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		return time.Duration(micros) * time.Microsecond, nil
	},
)

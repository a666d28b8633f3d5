package codec

import (
	"encoding/json"

	"eqlwire/buf"
)

// jsonWireFormat is a one-byte format tag preceding every JSON value's
// bytes, reserved for future non-text encodings; this client only ever
// produces and expects format 1 (UTF-8 text).
const jsonWireFormat = 1

// JSONCodec encodes/decodes std::json as raw text preceded by a
// one-byte format tag, decoding to json.RawMessage so callers can
// unmarshal into whatever shape they need.
var JSONCodec = newScalar("std::json",
	func(w *buf.WriteBuffer, v any) error {
		switch raw := v.(type) {
		case json.RawMessage:
			w.WriteU8(jsonWireFormat)
			w.WriteBytes(raw)
			return nil
		case []byte:
			w.WriteU8(jsonWireFormat)
			w.WriteBytes(raw)
			return nil
		case string:
			w.WriteU8(jsonWireFormat)
			w.WriteBytes([]byte(raw))
			return nil
		default:
			return wrongType("json", v)
		}
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		if _, err := r.ReadU8(); err != nil {
			return nil, err
		}
		out := make([]byte, r.Len())
		copy(out, r.Remaining())
		if err := r.Discard(r.Len()); err != nil {
			return nil, err
		}
		return json.RawMessage(out), nil
	},
)

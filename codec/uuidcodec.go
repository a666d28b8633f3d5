package codec

import (
	"eqlwire/buf"

	"github.com/google/uuid"
)

// UUIDCodec encodes/decodes std::uuid as a github.com/google/uuid.UUID,
// the same type the rest of the pack (vitessio/vitess, tinysql) uses
// for identifiers, instead of hand-rolled hex formatting.
var UUIDCodec = newScalar("std::uuid",
	func(w *buf.WriteBuffer, v any) error {
		id, ok := v.(uuid.UUID)
		if !ok {
			return wrongType("uuid", v)
		}
		w.WriteBytes(id[:])
		return nil
	},
	func(r *buf.FlatReadBuffer) (any, error) {
		raw, err := r.ReadUUID()
		if err != nil {
			return nil, err
		}
		return uuid.UUID(raw), nil
	},
)

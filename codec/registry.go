package codec

import (
	"fmt"

	"github.com/google/uuid"
)

// Registry maps type UUIDs to codecs. Entries are never evicted during
// a connection's lifetime — building a codec from a descriptor blob may
// register additional sub-codecs as a side effect, and later
// descriptors are allowed to reference earlier ones by UUID.
type Registry struct {
	codecs map[uuid.UUID]Codec
}

// NewRegistry returns a registry pre-populated with the built-in base
// scalar codecs.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[uuid.UUID]Codec, len(baseScalars)*2)}
	for _, c := range baseScalars {
		r.codecs[c.ID()] = c
	}
	return r
}

// Get returns the codec registered under id, if any.
func (r *Registry) Get(id uuid.UUID) (Codec, bool) {
	c, ok := r.codecs[id]
	return c, ok
}

// MustGet returns the codec registered under id, or an error if none is
// registered — the case of a reference to a UUID that is neither built
// in nor previously defined in the current descriptor stream. The error
// is a plain error; BuildCodec wraps it in a *wire.ProtocolError.
func (r *Registry) MustGet(id uuid.UUID) (Codec, error) {
	c, ok := r.codecs[id]
	if !ok {
		return nil, fmt.Errorf("codec: unknown type id %s", id)
	}
	return c, nil
}

// Register stores c under id. It always overwrites, matching the
// construction algorithm's rule that later descriptors may re-register
// (e.g. a Scalar descriptor aliasing an existing base type).
func (r *Registry) Register(id uuid.UUID, c Codec) {
	r.codecs[id] = c
}

// Len reports how many codecs are currently registered, mainly for
// tests.
func (r *Registry) Len() int {
	return len(r.codecs)
}

// Package store implements the content-addressed resource store: pluggable
// backends, the Store that layers commit/checkout/modify semantics over
// them, and the ambient-store propagation used by internal/invoke.
package store

import (
	"context"

	"github.com/relayrun/enact/internal/resource"
)

// Backend is the minimal storage contract a content-addressed store needs.
// It never sees a Resource, only its packed, digest-addressed form: a
// backend's only job is durable bytes-by-digest storage, not knowledge of
// resource semantics.
type Backend interface {
	// Put stores data under digest, no-op if it is already present.
	Put(ctx context.Context, digest string, data []byte) error
	// Has reports whether digest is present.
	Has(ctx context.Context, digest string) (bool, error)
	// Get returns the bytes stored under digest, or ok=false if absent.
	Get(ctx context.Context, digest string) (data []byte, ok bool, err error)
}

// commit packs r, computes its digest, stores its bytes in backend if not
// already present, and returns the resulting reference. Content addressing
// means committing the same resource twice is idempotent and yields the
// same reference both times.
func commit(ctx context.Context, backend Backend, r resource.Resource) (resource.Reference, error) {
	packed, err := resource.Pack(r)
	if err != nil {
		return resource.Reference{}, err
	}
	digest, err := resource.Digest(packed)
	if err != nil {
		return resource.Reference{}, err
	}
	ref := resource.Reference{Type: r.TypeID(), Digest: digest}

	has, err := backend.Has(ctx, digest)
	if err != nil {
		return resource.Reference{}, err
	}
	if has {
		return ref, nil
	}

	wire, err := resource.Encode(packed)
	if err != nil {
		return resource.Reference{}, err
	}
	if err := backend.Put(ctx, digest, wire); err != nil {
		return resource.Reference{}, err
	}
	return ref, nil
}

// checkout resolves ref back into a Resource using reg to find its
// constructor.
func checkout(ctx context.Context, backend Backend, reg *resource.Registry, ref resource.Reference) (resource.Resource, error) {
	data, ok, err := backend.Get(ctx, ref.Digest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Ref: ref}
	}
	packed, err := resource.Decode(data)
	if err != nil {
		return nil, err
	}
	return resource.Unpack(packed, reg)
}

package store

import (
	"context"

	"github.com/relayrun/enact/internal/resource"
)

// Store layers commit/checkout/modify semantics over a pluggable Backend,
// resolving packed resources back into typed Go values through a
// registry.
type Store struct {
	Backend  Backend
	Registry *resource.Registry
}

// New returns a Store over backend, resolving types against reg. If reg is
// nil, resource.Default is used.
func New(backend Backend, reg *resource.Registry) *Store {
	if reg == nil {
		reg = resource.Default
	}
	return &Store{Backend: backend, Registry: reg}
}

// Commit packs and stores r, returning a reference to it. Committing an
// already-present resource is a no-op that still returns its reference.
func (s *Store) Commit(ctx context.Context, r resource.Resource) (resource.Reference, error) {
	return commit(ctx, s.Backend, r)
}

// Checkout resolves ref into a Resource.
func (s *Store) Checkout(ctx context.Context, ref resource.Reference) (resource.Resource, error) {
	return checkout(ctx, s.Backend, s.Registry, ref)
}

// Modify checks out the resource ref currently names, applies fn, commits
// the result, and rebinds ref to the new reference. If fn returns an
// error, or checkout/commit fails, ref is left untouched.
func (s *Store) Modify(ctx context.Context, ref *Ref, fn func(current resource.Resource) (resource.Resource, error)) error {
	current, err := s.Checkout(ctx, ref.Get())
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	newRef, err := s.Commit(ctx, next)
	if err != nil {
		return err
	}
	ref.set(newRef)
	return nil
}

package store

import "context"

type storeContextKey struct{}

// WithStore returns a context carrying s as the ambient active store. This
// is the only place a "current store" is threaded implicitly rather than
// as an explicit parameter, matching the design note that ambient state
// belongs in context values, never in package-level mutable globals.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// FromContext returns the ambient store set by the nearest enclosing
// WithStore call, if any.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(storeContextKey{}).(*Store)
	return s, ok
}

// MustFromContext returns the ambient store or ErrNoActiveStore.
func MustFromContext(ctx context.Context) (*Store, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoActiveStore
	}
	return s, nil
}

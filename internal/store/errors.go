package store

import (
	"errors"

	"github.com/relayrun/enact/internal/resource"
)

// NotFoundError is returned when a reference names a digest absent from
// the backend.
type NotFoundError struct {
	Ref resource.Reference
}

func (e *NotFoundError) Error() string {
	return "store: not found: " + e.Ref.String()
}

// IsNotFound reports whether err (or something it wraps) is a
// NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// ErrNoActiveStore is returned by operations that need an ambient store
// from context but find none.
var ErrNoActiveStore = errors.New("store: no active store in context")

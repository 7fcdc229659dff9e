package resource

import "errors"

// UnknownTypeError is returned by Unpack when a packed resource's type_id
// has no constructor registered in the registry being used.
type UnknownTypeError struct {
	Type TypeID
}

func (e *UnknownTypeError) Error() string {
	return "resource: unknown type " + e.Type.Name + " (" + e.Type.Digest + ")"
}

// IsUnknownType reports whether err (or something it wraps) is an
// UnknownTypeError.
func IsUnknownType(err error) bool {
	var target *UnknownTypeError
	return errors.As(err, &target)
}

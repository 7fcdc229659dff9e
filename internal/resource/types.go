package resource

// TypeID identifies a registered resource type by name and a stable digest
// derived from that name. Equality is by digest, not name, matching the
// spec's identification rule.
type TypeID struct {
	Name   string
	Digest string
}

// Equal reports whether two type identifiers name the same registered type.
func (t TypeID) Equal(other TypeID) bool {
	return t.Digest == other.Digest
}

func (t TypeID) String() string {
	return t.Name
}

// Resource is a named, registered type together with an ordered list of
// (field name, field value) pairs. Field order is part of the contract:
// serialization depends on it.
type Resource interface {
	TypeID() TypeID
	FieldNames() []string
	FieldValues() []FieldValue
}

// Constructor builds a Resource from a name-to-value mapping, as produced
// by Unpack.
type Constructor func(fields map[string]FieldValue) (Resource, error)

// Reference is an immutable (type, digest) pair naming a packed resource
// in some store. The target of a reference is immutable for the lifetime
// of that digest.
type Reference struct {
	Type   TypeID
	Digest string
}

// Equal reports whether two references name the same resource.
func (r Reference) Equal(other Reference) bool {
	return r.Type.Equal(other.Type) && r.Digest == other.Digest
}

// Less provides a stable total order over references, for callers that
// need deterministic iteration (e.g. set diffs in tests).
func (r Reference) Less(other Reference) bool {
	if r.Digest != other.Digest {
		return r.Digest < other.Digest
	}
	return r.Type.Digest < other.Type.Digest
}

func (r Reference) String() string {
	return r.Type.Name + "@" + r.Digest
}

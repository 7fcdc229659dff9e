package resource

import (
	"fmt"
	"sync"
)

// Registry maps stable type identifiers to resource constructors. A name
// may be bound at most once; type_id_for(name) returns the stable id whose
// digest is H(name).
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]TypeID
	byDigest map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:   make(map[string]TypeID),
		byDigest: make(map[string]Constructor),
	}
}

// Register binds name to ctor and returns the resulting TypeID. It is an
// error to register the same name twice.
func (r *Registry) Register(name string, ctor Constructor) (TypeID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return TypeID{}, fmt.Errorf("resource: type %q already registered", name)
	}
	id := TypeID{Name: name, Digest: typeDigest(name)}
	r.byName[name] = id
	r.byDigest[id.Digest] = ctor
	return id, nil
}

// MustRegister is like Register but panics on error. Intended for package
// init() blocks where a duplicate registration is a programming error.
func (r *Registry) MustRegister(name string, ctor Constructor) TypeID {
	id, err := r.Register(name, ctor)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup returns the constructor registered for id's digest.
func (r *Registry) Lookup(id TypeID) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.byDigest[id.Digest]
	return ctor, ok
}

// TypeIDFor returns the stable TypeID for a registered name.
func (r *Registry) TypeIDFor(name string) (TypeID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// Default is the process-wide registry used by Pack/Unpack when callers do
// not thread an explicit *Registry through.
var Default = NewRegistry()

// Register delegates to Default.
func Register(name string, ctor Constructor) (TypeID, error) {
	return Default.Register(name, ctor)
}

// MustRegister delegates to Default.
func MustRegister(name string, ctor Constructor) TypeID {
	return Default.MustRegister(name, ctor)
}

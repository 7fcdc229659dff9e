package store

import (
	"sync"

	"github.com/relayrun/enact/internal/resource"
)

// Ref is a mutable cell whose identity (the pointer) is distinct from the
// digest it currently names. Modify rebinds the cell atomically; a Ref
// captured before a Modify call observes the new digest afterward, while
// resource.Reference values captured earlier keep naming the old one.
type Ref struct {
	mu  sync.RWMutex
	cur resource.Reference
}

// NewRef returns a Ref currently bound to target.
func NewRef(target resource.Reference) *Ref {
	return &Ref{cur: target}
}

// Get returns the reference the cell currently names.
func (r *Ref) Get() resource.Reference {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cur
}

func (r *Ref) set(target resource.Reference) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cur = target
}

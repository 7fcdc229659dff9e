// Package schema checks registered resource types against CUE-authored
// shape definitions ahead of time, the systems-appropriate replacement
// for checking an invokable's declared input/output types only at call
// time: the enact validate CLI command runs this over every registered
// type before anything is ever invoked.
package schema

import (
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/relayrun/enact/internal/resource"
)

// Registry holds one compiled CUE schema per registered type name,
// loaded from a set of CUE source files.
type Registry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewRegistry compiles a CUE module's source files (already read from
// disk by the caller, keyed by filename for error reporting) into a
// schema registry. Each top-level field in the combined CUE value is
// treated as the shape definition for the registered type of the same
// name.
func NewRegistry(sources map[string]string) (*Registry, error) {
	ctx := cuecontext.New()
	reg := &Registry{ctx: ctx, schemas: map[string]cue.Value{}}

	for filename, src := range sources {
		v := ctx.CompileString(src, cue.Filename(filename))
		if err := v.Err(); err != nil {
			return nil, fmt.Errorf("schema: compile %s: %w", filename, cueerrors.Sanitize(cueerrors.Promote(err, "")))
		}
		iter, err := v.Fields()
		if err != nil {
			return nil, fmt.Errorf("schema: iterate fields of %s: %w", filename, err)
		}
		for iter.Next() {
			name := iter.Label()
			reg.schemas[name] = iter.Value()
		}
	}
	return reg, nil
}

// Has reports whether a schema is registered for typeName.
func (r *Registry) Has(typeName string) bool {
	_, ok := r.schemas[typeName]
	return ok
}

// ValidatePacked checks a packed resource's fields against the CUE shape
// registered under its type name. A type with no registered schema
// passes validation vacuously: schemas are opt-in per type.
func (r *Registry) ValidatePacked(typeName string, packed resource.PackedResource) error {
	shape, ok := r.schemas[typeName]
	if !ok {
		return nil
	}

	data, err := json.Marshal(packed.Fields)
	if err != nil {
		return fmt.Errorf("schema: marshal fields of %s: %w", typeName, err)
	}

	instance := r.ctx.CompileBytes(data)
	if err := instance.Err(); err != nil {
		return fmt.Errorf("schema: decode fields of %s: %w", typeName, err)
	}

	unified := shape.Unify(instance)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{TypeName: typeName, Cause: cueerrors.Sanitize(cueerrors.Promote(err, ""))}
	}
	return nil
}

// ValidateResource packs r and validates the result against its
// registered shape.
func (reg *Registry) ValidateResource(r resource.Resource) error {
	packed, err := resource.Pack(r)
	if err != nil {
		return err
	}
	return reg.ValidatePacked(r.TypeID().Name, packed)
}

// ValidationError reports that a resource's fields did not satisfy its
// registered CUE shape.
type ValidationError struct {
	TypeName string
	Cause    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema: %s does not satisfy its registered shape: %v", e.TypeName, e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

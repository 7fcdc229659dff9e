package invoke

import (
	"context"

	"github.com/relayrun/enact/internal/resource"
)

// Invokable is a resource that can be called with an input resource to
// produce an output resource. Implementations should route any calls to
// other invokables through Call so they are journaled.
type Invokable interface {
	resource.Resource
	Call(ctx context.Context, input resource.Resource) (resource.Resource, error)
}

// AsyncInvokable is the cooperative-async counterpart of Invokable, driven
// by CallAsync. Its children's completion order (not launch order) is
// what gets journaled.
type AsyncInvokable interface {
	resource.Resource
	Call(ctx context.Context, input resource.Resource) (resource.Resource, error)
}

// TypedInvokable is an optional interface an Invokable or AsyncInvokable
// may implement to declare its input/output types for enforcement and for
// RequestInput's default requested-type inference.
type TypedInvokable interface {
	InputType() resource.TypeID
	OutputType() resource.TypeID
}

package invoke

import (
	"context"
	"fmt"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// WrappedException wraps a plain Go error as a committable resource, for
// the case where an invokable's Call returns an error that is not itself
// a resource carrying richer structure.
type WrappedException struct {
	Message string
}

var wrappedExceptionTypeID = resource.MustRegister("enact.invoke.WrappedException", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	msg, _ := fields["message"].(resource.StringValue)
	return &WrappedException{Message: string(msg)}, nil
})

func (e *WrappedException) TypeID() resource.TypeID { return wrappedExceptionTypeID }
func (e *WrappedException) FieldNames() []string     { return []string{"message"} }
func (e *WrappedException) FieldValues() []resource.FieldValue {
	return []resource.FieldValue{resource.StringValue(e.Message)}
}
func (e *WrappedException) Error() string { return e.Message }

// InputRequest is both a resource (so it can be journaled as the raised
// exception on a suspended invocation) and a Go error (so Call
// implementations can return it to suspend execution) indicating that the
// invocation needs input from outside the system to continue.
type InputRequest struct {
	Invokable     resource.Reference
	ForResource   resource.Reference
	RequestedType resource.TypeID
	Context       resource.FieldValue
}

var inputRequestTypeID = resource.MustRegister("enact.invoke.InputRequest", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	invokable, err := refField(fields, "invokable")
	if err != nil {
		return nil, err
	}
	forResource, err := refField(fields, "for_resource")
	if err != nil {
		return nil, err
	}
	tv, ok := fields["requested_type"].(resource.TypeValue)
	if !ok {
		return nil, fmt.Errorf("invoke: input request requested_type is not a type handle")
	}
	return &InputRequest{
		Invokable:     invokable,
		ForResource:   forResource,
		RequestedType: tv.Type,
		Context:       fields["context"],
	}, nil
})

func (r *InputRequest) TypeID() resource.TypeID { return inputRequestTypeID }
func (r *InputRequest) FieldNames() []string {
	return []string{"invokable", "for_resource", "requested_type", "context"}
}
func (r *InputRequest) FieldValues() []resource.FieldValue {
	ctx := r.Context
	if ctx == nil {
		ctx = resource.NoneValue{}
	}
	return []resource.FieldValue{
		resource.RefValue{Ref: r.Invokable},
		resource.RefValue{Ref: r.ForResource},
		resource.TypeValue{Type: r.RequestedType},
		ctx,
	}
}

func (r *InputRequest) Error() string {
	return fmt.Sprintf("input requested: %s", r.RequestedType.Name)
}

// RequestInput raises an InputRequest for the current invocation, using
// the calling invokable declared by the ambient Builder. It must be
// called from within an invokable's Call method, itself invoked through
// Call/CallAsync so a Builder is active in ctx.
//
// forResource may be nil, in which case NoneResource is used. requestedType
// may be the zero TypeID, in which case the enclosing invokable's declared
// output type is used; if that too is undetermined, an error is returned.
func RequestInput(ctx context.Context, requestedType resource.TypeID, forResource resource.Resource, requestContext resource.FieldValue) error {
	b, ok := builderFromContext(ctx)
	if !ok {
		return newInputRequestOutsideInvocationError()
	}
	if requestedType.Digest == "" {
		typed, ok := b.invokable.(TypedInvokable)
		if !ok {
			return newRequestedTypeUndeterminedError()
		}
		requestedType = typed.OutputType()
		if requestedType.Digest == "" {
			return newRequestedTypeUndeterminedError()
		}
	}
	if forResource == nil {
		forResource = resource.NoneResource{}
	}

	st, err := store.MustFromContext(ctx)
	if err != nil {
		return err
	}
	invokableRef, err := st.Commit(ctx, b.invokable)
	if err != nil {
		return err
	}
	forResourceRef, err := st.Commit(ctx, forResource)
	if err != nil {
		return err
	}
	return &InputRequest{
		Invokable:     invokableRef,
		ForResource:   forResourceRef,
		RequestedType: requestedType,
		Context:       requestContext,
	}
}

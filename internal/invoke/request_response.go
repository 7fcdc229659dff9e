// Package invoke implements the invocation engine: invokables, the
// journaling builder, rewind, replay, and the interactive invocation
// generator, layered over internal/store's content-addressed resources.
package invoke

import (
	"fmt"

	"github.com/relayrun/enact/internal/resource"
)

// Request records which invokable was called on which input.
type Request struct {
	Invokable resource.Reference
	Input     resource.Reference
}

var requestTypeID = resource.MustRegister("enact.invoke.Request", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	invokable, err := refField(fields, "invokable")
	if err != nil {
		return nil, err
	}
	input, err := refField(fields, "input")
	if err != nil {
		return nil, err
	}
	return &Request{Invokable: invokable, Input: input}, nil
})

func (r *Request) TypeID() resource.TypeID { return requestTypeID }
func (r *Request) FieldNames() []string    { return []string{"invokable", "input"} }
func (r *Request) FieldValues() []resource.FieldValue {
	return []resource.FieldValue{
		resource.RefValue{Ref: r.Invokable},
		resource.RefValue{Ref: r.Input},
	}
}

// Equal reports whether two requests name the same (invokable, input)
// pair. Since both fields are already content-addressed references,
// structural equality of the fields is exactly request equality.
func (r *Request) Equal(other *Request) bool {
	return r.Invokable.Equal(other.Invokable) && r.Input.Equal(other.Input)
}

// Response records the outcome of a call: its output on success, the
// exception raised on failure (and whether it originated here or in a
// child), and the subinvocations made along the way.
type Response struct {
	Invokable  resource.Reference
	Output     *resource.Reference
	Raised     *resource.Reference
	RaisedHere bool
	Children   []resource.Reference
}

var responseTypeID = resource.MustRegister("enact.invoke.Response", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	invokable, err := refField(fields, "invokable")
	if err != nil {
		return nil, err
	}
	output, err := optionalRefField(fields, "output")
	if err != nil {
		return nil, err
	}
	raised, err := optionalRefField(fields, "raised")
	if err != nil {
		return nil, err
	}
	raisedHere, _ := fields["raised_here"].(resource.BoolValue)
	children, err := refListField(fields, "children")
	if err != nil {
		return nil, err
	}
	return &Response{
		Invokable:  invokable,
		Output:     output,
		Raised:     raised,
		RaisedHere: bool(raisedHere),
		Children:   children,
	}, nil
})

func (r *Response) TypeID() resource.TypeID { return responseTypeID }
func (r *Response) FieldNames() []string {
	return []string{"invokable", "output", "raised", "raised_here", "children"}
}
func (r *Response) FieldValues() []resource.FieldValue {
	children := make(resource.ListValue, len(r.Children))
	for i, c := range r.Children {
		children[i] = resource.RefValue{Ref: c}
	}
	return []resource.FieldValue{
		resource.RefValue{Ref: r.Invokable},
		optionalRefValue(r.Output),
		optionalRefValue(r.Raised),
		resource.BoolValue(r.RaisedHere),
		children,
	}
}

// IsComplete reports whether this response reflects a terminal outcome,
// either an output or a raised exception.
func (r *Response) IsComplete() bool {
	return r.Output != nil || r.Raised != nil
}

// Clone returns a deep copy safe to mutate independently of r, since
// Response.Children is a slice.
func (r *Response) Clone() *Response {
	children := make([]resource.Reference, len(r.Children))
	copy(children, r.Children)
	return &Response{
		Invokable:  r.Invokable,
		Output:     r.Output,
		Raised:     r.Raised,
		RaisedHere: r.RaisedHere,
		Children:   children,
	}
}

// Invocation pairs a committed Request with its Response.
type Invocation struct {
	RequestRef  resource.Reference
	ResponseRef resource.Reference
}

var invocationTypeID = resource.MustRegister("enact.invoke.Invocation", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	req, err := refField(fields, "request")
	if err != nil {
		return nil, err
	}
	resp, err := refField(fields, "response")
	if err != nil {
		return nil, err
	}
	return &Invocation{RequestRef: req, ResponseRef: resp}, nil
})

func (i *Invocation) TypeID() resource.TypeID { return invocationTypeID }
func (i *Invocation) FieldNames() []string    { return []string{"request", "response"} }
func (i *Invocation) FieldValues() []resource.FieldValue {
	return []resource.FieldValue{
		resource.RefValue{Ref: i.RequestRef},
		resource.RefValue{Ref: i.ResponseRef},
	}
}

func refField(fields map[string]resource.FieldValue, name string) (resource.Reference, error) {
	rv, ok := fields[name].(resource.RefValue)
	if !ok {
		return resource.Reference{}, fmt.Errorf("invoke: field %q is not a reference", name)
	}
	return rv.Ref, nil
}

func optionalRefField(fields map[string]resource.FieldValue, name string) (*resource.Reference, error) {
	switch v := fields[name].(type) {
	case resource.RefValue:
		ref := v.Ref
		return &ref, nil
	case resource.NoneValue, nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("invoke: field %q is neither a reference nor none", name)
	}
}

func optionalRefValue(ref *resource.Reference) resource.FieldValue {
	if ref == nil {
		return resource.NoneValue{}
	}
	return resource.RefValue{Ref: *ref}
}

func refListField(fields map[string]resource.FieldValue, name string) ([]resource.Reference, error) {
	lv, ok := fields[name].(resource.ListValue)
	if !ok {
		return nil, fmt.Errorf("invoke: field %q is not a list", name)
	}
	out := make([]resource.Reference, len(lv))
	for i, elem := range lv {
		rv, ok := elem.(resource.RefValue)
		if !ok {
			return nil, fmt.Errorf("invoke: field %q element %d is not a reference", name, i)
		}
		out[i] = rv.Ref
	}
	return out, nil
}

package invoke

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayrun/enact/internal/resource"
)

// stringBox is a second test resource type, distinct from intBox, used to
// provoke TypedInvokable mismatches.
type stringBox struct {
	S string
}

var stringBoxTypeID = resource.MustRegister("enact.invoke.test.StringBox", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	s, _ := fields["s"].(resource.StringValue)
	return &stringBox{S: string(s)}, nil
})

func (b *stringBox) TypeID() resource.TypeID { return stringBoxTypeID }
func (b *stringBox) FieldNames() []string    { return []string{"s"} }
func (b *stringBox) FieldValues() []resource.FieldValue {
	return []resource.FieldValue{resource.StringValue(b.S)}
}

// typedEcho declares intBox as both its input and output type and actually
// returns whatever it is given, so mismatches are caused entirely by the
// caller's or the test's choice of input/output, not by typedEcho itself.
type typedEcho struct{}

var typedEchoTypeID = resource.MustRegister("enact.invoke.test.TypedEcho", func(map[string]resource.FieldValue) (resource.Resource, error) {
	return &typedEcho{}, nil
})

func (typedEcho) TypeID() resource.TypeID            { return typedEchoTypeID }
func (typedEcho) FieldNames() []string               { return nil }
func (typedEcho) FieldValues() []resource.FieldValue { return nil }
func (typedEcho) InputType() resource.TypeID         { return intBoxTypeID }
func (typedEcho) OutputType() resource.TypeID        { return intBoxTypeID }
func (typedEcho) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	return input, nil
}

// typedMismatchedOutput declares intBox as its output type but always
// returns a stringBox, to exercise the output-side enforcement.
type typedMismatchedOutput struct{}

var typedMismatchedOutputTypeID = resource.MustRegister("enact.invoke.test.TypedMismatchedOutput", func(map[string]resource.FieldValue) (resource.Resource, error) {
	return &typedMismatchedOutput{}, nil
})

func (typedMismatchedOutput) TypeID() resource.TypeID            { return typedMismatchedOutputTypeID }
func (typedMismatchedOutput) FieldNames() []string               { return nil }
func (typedMismatchedOutput) FieldValues() []resource.FieldValue { return nil }
func (typedMismatchedOutput) InputType() resource.TypeID         { return intBoxTypeID }
func (typedMismatchedOutput) OutputType() resource.TypeID        { return intBoxTypeID }
func (typedMismatchedOutput) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	return &stringBox{S: "not an intBox"}, nil
}

func TestTypedInvokableRejectsMismatchedInput(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	_, err := Invoke(ctx, st, typedEcho{}, &stringBox{S: "wrong type"})
	var typeErr *InvokableTypeError
	require.ErrorAs(t, err, &typeErr)
	require.True(t, IsInvokableTypeError(err))
}

func TestTypedInvokableRejectsMismatchedOutput(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	_, err := Invoke(ctx, st, typedMismatchedOutput{}, &intBox{N: 1})
	var typeErr *InvokableTypeError
	require.ErrorAs(t, err, &typeErr)
	require.True(t, IsInvokableTypeError(err))
}

func TestTypedInvokableAcceptsMatchingTypes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv, err := Invoke(ctx, st, typedEcho{}, &intBox{N: 7})
	require.NoError(t, err)

	out, raised, err := Outcome(ctx, st, inv)
	require.NoError(t, err)
	require.Nil(t, raised)
	require.Equal(t, int64(7), out.(*intBox).N)
}

func TestUntypedInvokableIsNotConstrained(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	// increment has no InputType/OutputType, so any input is accepted.
	inv, err := Invoke(ctx, st, increment{}, &intBox{N: 1})
	require.NoError(t, err)

	out, _, err := Outcome(ctx, st, inv)
	require.NoError(t, err)
	require.Equal(t, int64(2), out.(*intBox).N)
}

package invoke

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// intBox is a minimal test resource wrapping a single integer.
type intBox struct {
	N int64
}

var intBoxTypeID = resource.MustRegister("enact.invoke.test.IntBox", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	n, _ := fields["n"].(resource.IntValue)
	return &intBox{N: int64(n)}, nil
})

func (b *intBox) TypeID() resource.TypeID { return intBoxTypeID }
func (b *intBox) FieldNames() []string    { return []string{"n"} }
func (b *intBox) FieldValues() []resource.FieldValue {
	return []resource.FieldValue{resource.IntValue(b.N)}
}

// increment is an Invokable that returns its input incremented by one.
type increment struct{}

var incrementTypeID = resource.MustRegister("enact.invoke.test.Increment", func(map[string]resource.FieldValue) (resource.Resource, error) {
	return &increment{}, nil
})

func (increment) TypeID() resource.TypeID            { return incrementTypeID }
func (increment) FieldNames() []string               { return nil }
func (increment) FieldValues() []resource.FieldValue { return nil }
func (increment) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	box := input.(*intBox)
	return &intBox{N: box.N + 1}, nil
}

// chain calls increment n times, each as a journaled subinvocation.
type chain struct {
	Depth int64
}

var chainTypeID = resource.MustRegister("enact.invoke.test.Chain", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	depth, _ := fields["depth"].(resource.IntValue)
	return &chain{Depth: int64(depth)}, nil
})

func (c *chain) TypeID() resource.TypeID { return chainTypeID }
func (c *chain) FieldNames() []string    { return []string{"depth"} }
func (c *chain) FieldValues() []resource.FieldValue {
	return []resource.FieldValue{resource.IntValue(c.Depth)}
}
func (c *chain) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	current := input
	for i := int64(0); i < c.Depth; i++ {
		out, err := Call(ctx, increment{}, current)
		if err != nil {
			return nil, err
		}
		current = out
	}
	return current, nil
}

// sumThree calls three dice-like child invokables and sums their outputs.
type sumThree struct {
	Rolls [3]int64
}

var sumThreeTypeID = resource.MustRegister("enact.invoke.test.SumThree", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	lv, _ := fields["rolls"].(resource.ListValue)
	var s sumThree
	for i := 0; i < 3 && i < len(lv); i++ {
		n, _ := lv[i].(resource.IntValue)
		s.Rolls[i] = int64(n)
	}
	return &s, nil
})

func (s *sumThree) TypeID() resource.TypeID { return sumThreeTypeID }
func (s *sumThree) FieldNames() []string    { return []string{"rolls"} }
func (s *sumThree) FieldValues() []resource.FieldValue {
	lv := make(resource.ListValue, len(s.Rolls))
	for i, r := range s.Rolls {
		lv[i] = resource.IntValue(r)
	}
	return []resource.FieldValue{lv}
}
func (s *sumThree) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	total := int64(0)
	for _, roll := range s.Rolls {
		out, err := Call(ctx, fixedValue{N: roll}, resource.NoneResource{})
		if err != nil {
			return nil, err
		}
		total += out.(*intBox).N
	}
	return &intBox{N: total}, nil
}

// fixedValue is an Invokable that always returns N, standing in for a
// seeded random die roll.
type fixedValue struct {
	N int64
}

var fixedValueTypeID = resource.MustRegister("enact.invoke.test.FixedValue", func(fields map[string]resource.FieldValue) (resource.Resource, error) {
	n, _ := fields["n"].(resource.IntValue)
	return &fixedValue{N: int64(n)}, nil
})

func (f fixedValue) TypeID() resource.TypeID { return fixedValueTypeID }
func (f fixedValue) FieldNames() []string    { return []string{"n"} }
func (f fixedValue) FieldValues() []resource.FieldValue {
	return []resource.FieldValue{resource.IntValue(f.N)}
}
func (f fixedValue) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	return &intBox{N: f.N}, nil
}

// failing always raises a plain business error.
type failing struct{}

var failingTypeID = resource.MustRegister("enact.invoke.test.Failing", func(map[string]resource.FieldValue) (resource.Resource, error) {
	return &failing{}, nil
})

func (failing) TypeID() resource.TypeID            { return failingTypeID }
func (failing) FieldNames() []string               { return nil }
func (failing) FieldValues() []resource.FieldValue { return nil }
func (failing) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	return nil, fmt.Errorf("deliberate failure")
}

// callsFailing calls failing as a subinvocation and lets its error
// propagate unchanged, to exercise RaisedHere=false ancestor recording.
type callsFailing struct{}

var callsFailingTypeID = resource.MustRegister("enact.invoke.test.CallsFailing", func(map[string]resource.FieldValue) (resource.Resource, error) {
	return &callsFailing{}, nil
})

func (callsFailing) TypeID() resource.TypeID            { return callsFailingTypeID }
func (callsFailing) FieldNames() []string               { return nil }
func (callsFailing) FieldValues() []resource.FieldValue { return nil }
func (callsFailing) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	_, err := Call(ctx, failing{}, resource.NoneResource{})
	if err != nil {
		return nil, err
	}
	return resource.NoneResource{}, nil
}

// asksForInput requests an intBox from outside the system; when resumed,
// the supplied answer becomes its output unchanged.
type asksForInput struct{}

var asksForInputTypeID = resource.MustRegister("enact.invoke.test.AsksForInput", func(map[string]resource.FieldValue) (resource.Resource, error) {
	return &asksForInput{}, nil
})

func (asksForInput) TypeID() resource.TypeID            { return asksForInputTypeID }
func (asksForInput) FieldNames() []string               { return nil }
func (asksForInput) FieldValues() []resource.FieldValue { return nil }
func (a asksForInput) InputType() resource.TypeID  { return intBoxTypeID }
func (a asksForInput) OutputType() resource.TypeID { return intBoxTypeID }
func (a asksForInput) Call(ctx context.Context, input resource.Resource) (resource.Resource, error) {
	return nil, RequestInput(ctx, intBoxTypeID, nil, resource.StringValue("need a number"))
}

func newTestStore() *store.Store {
	return store.New(store.NewMemoryBackend(), resource.Default)
}

func TestIncrementJournalsSingleCall(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv, err := Invoke(ctx, st, increment{}, &intBox{N: 41})
	require.NoError(t, err)

	out, raised, err := Outcome(ctx, st, inv)
	require.NoError(t, err)
	require.Nil(t, raised)
	require.Equal(t, int64(42), out.(*intBox).N)
}

func TestChainJournalsSubinvocationsInOrder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv, err := Invoke(ctx, st, &chain{Depth: 5}, &intBox{N: 0})
	require.NoError(t, err)

	out, _, err := Outcome(ctx, st, inv)
	require.NoError(t, err)
	require.Equal(t, int64(5), out.(*intBox).N)

	r, err := st.Checkout(ctx, inv.ResponseRef)
	require.NoError(t, err)
	require.Len(t, r.(*Response).Children, 5)
}

func TestSumThreeMatchesSeededScenario(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv, err := Invoke(ctx, st, &sumThree{Rolls: [3]int64{2, 3, 4}}, resource.NoneResource{})
	require.NoError(t, err)

	out, _, err := Outcome(ctx, st, inv)
	require.NoError(t, err)
	require.Equal(t, int64(9), out.(*intBox).N)
}

func TestHashEqualityForIdenticalInvocations(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv1, err := Invoke(ctx, st, increment{}, &intBox{N: 1})
	require.NoError(t, err)
	inv2, err := Invoke(ctx, st, increment{}, &intBox{N: 1})
	require.NoError(t, err)

	require.Equal(t, inv1.ResponseRef.Digest, inv2.ResponseRef.Digest)
}

func TestFailingInvokableRecordsRaisedHere(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv, err := Invoke(ctx, st, failing{}, resource.NoneResource{})
	require.NoError(t, err)

	r, err := st.Checkout(ctx, inv.ResponseRef)
	require.NoError(t, err)
	response := r.(*Response)
	require.NotNil(t, response.Raised)
	require.True(t, response.RaisedHere)

	_, raised, err := Outcome(ctx, st, inv)
	require.NoError(t, err)
	require.Equal(t, "deliberate failure", raised.(*WrappedException).Message)
}

func TestAncestorRecordsSameExceptionWithoutRaisedHere(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv, err := Invoke(ctx, st, callsFailing{}, resource.NoneResource{})
	require.NoError(t, err)

	r, err := st.Checkout(ctx, inv.ResponseRef)
	require.NoError(t, err)
	parentResponse := r.(*Response)
	require.NotNil(t, parentResponse.Raised)
	require.False(t, parentResponse.RaisedHere)
	require.Len(t, parentResponse.Children, 1)

	childInv, err := st.Checkout(ctx, parentResponse.Children[0])
	require.NoError(t, err)
	childResponseRef := childInv.(*Invocation).ResponseRef
	cr, err := st.Checkout(ctx, childResponseRef)
	require.NoError(t, err)
	childResponse := cr.(*Response)
	require.True(t, childResponse.RaisedHere)

	require.Equal(t, childResponse.Raised.Digest, parentResponse.Raised.Digest)
}

func TestRewindAndReplayPreservesKeptChildren(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv, err := Invoke(ctx, st, &chain{Depth: 3}, &intBox{N: 0})
	require.NoError(t, err)

	rewound, err := Rewind(ctx, st, inv, 1)
	require.NoError(t, err)

	rewoundRef, err := st.Commit(ctx, rewound)
	require.NoError(t, err)

	replayed, err := Invoke(ctx, st, &chain{Depth: 3}, &intBox{N: 0}, ReplayFrom(rewoundRef))
	require.NoError(t, err)

	out, _, err := Outcome(ctx, st, replayed)
	require.NoError(t, err)
	require.Equal(t, int64(3), out.(*intBox).N)

	r, err := st.Checkout(ctx, replayed.ResponseRef)
	require.NoError(t, err)
	require.Len(t, r.(*Response).Children, 3)
}

func TestStrictReplayMismatchReturnsReplayError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	inv, err := Invoke(ctx, st, &chain{Depth: 2}, &intBox{N: 0})
	require.NoError(t, err)

	// Replaying against a differently-shaped call makes the top-level
	// request itself differ from the recorded one, which strict replay
	// rejects before any child runs.
	_, err = Invoke(ctx, st, &sumThree{Rolls: [3]int64{1, 1, 1}}, resource.NoneResource{}, ReplayFrom(mustRef(ctx, st, inv)), Strict())
	var replayErr *ReplayError
	require.True(t, errors.As(err, &replayErr))
}

func mustRef(ctx context.Context, st *store.Store, inv *Invocation) resource.Reference {
	ref, err := st.Commit(ctx, inv)
	if err != nil {
		panic(err)
	}
	return ref
}

func TestInvocationGeneratorSuspendsAndResumes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore()

	gen := NewInvocationGenerator(ctx, st, asksForInput{}, &intBox{N: 0})

	req, complete, err := gen.Next(ctx)
	require.NoError(t, err)
	require.False(t, complete)
	require.NotNil(t, req)
	require.Equal(t, intBoxTypeID.Digest, req.RequestedType.Digest)

	_, _, err = gen.Next(ctx)
	require.True(t, IsInputRequired(err))

	req2, complete, err := gen.Send(ctx, &intBox{N: 21})
	require.NoError(t, err)
	require.True(t, complete)
	require.Nil(t, req2)

	out, _, err := Outcome(ctx, st, gen.Invocation())
	require.NoError(t, err)
	require.Equal(t, int64(21), out.(*intBox).N)
}

package invoke

import (
	"context"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// InvocationGenerator drives an invocation forward one InputRequest at a
// time: Next replays (or runs) up to the next pending InputRequest or
// completion, SetInput/Send supply the answer to resume past it. It is
// the Go analogue of an iterator whose items are the successive
// InputRequests an invocation raises.
type InvocationGenerator struct {
	ctx       context.Context
	st        *store.Store
	invokable Invokable
	input     resource.Resource

	invocation   *Invocation
	inputRequest *InputRequest
	pendingInput resource.Resource
	hasPending   bool
	done         bool
}

// NewInvocationGenerator starts a generator over invokable called on
// input. Call Next to advance it.
func NewInvocationGenerator(ctx context.Context, st *store.Store, invokable Invokable, input resource.Resource) *InvocationGenerator {
	return &InvocationGenerator{ctx: ctx, st: st, invokable: invokable, input: input}
}

// Invocation returns the most recently completed or suspended
// Invocation, or nil before the first call to Next.
func (g *InvocationGenerator) Invocation() *Invocation {
	return g.invocation
}

// InputRequest returns the pending InputRequest the generator is
// currently suspended on, or nil if the generator has not yet run, is
// complete, or just resumed past one.
func (g *InvocationGenerator) InputRequest() *InputRequest {
	return g.inputRequest
}

// Complete reports whether the underlying invocation has produced a
// final output (as opposed to being suspended on an InputRequest).
func (g *InvocationGenerator) Complete() bool {
	return g.done
}

// SetInput supplies the resource to resume with once Next is called
// again, answering the currently pending InputRequest.
func (g *InvocationGenerator) SetInput(answer resource.Resource) {
	g.pendingInput = answer
	g.hasPending = true
}

// Next advances the generator. On the first call it runs the invocation
// from scratch; on later calls it replays everything already recorded
// and resumes execution past the pending InputRequest using the answer
// supplied via SetInput or Send. It returns the next pending
// InputRequest (nil if the invocation completed), whether the invocation
// is now complete, and an error. Calling Next while an InputRequest is
// pending and no answer has been supplied returns InputRequiredError.
func (g *InvocationGenerator) Next(ctx context.Context) (*InputRequest, bool, error) {
	if g.inputRequest != nil && !g.hasPending {
		return nil, false, newInputRequiredError()
	}

	override := func(_ context.Context, _ *store.Store, raisedRef resource.Reference) (resource.Resource, error) {
		r, err := g.st.Checkout(g.ctx, raisedRef)
		if err != nil {
			return nil, err
		}
		if _, ok := r.(*InputRequest); !ok {
			return nil, nil
		}
		if !g.hasPending {
			return nil, nil
		}
		return g.pendingInput, nil
	}

	var opts []InvokeOption
	if g.invocation != nil {
		ref, err := g.st.Commit(ctx, g.invocation)
		if err != nil {
			return nil, false, err
		}
		opts = append(opts, ReplayFrom(ref), WithExceptionOverride(override))
	}

	inv, err := Invoke(ctx, g.st, g.invokable, g.input, opts...)
	if err != nil {
		return nil, false, err
	}

	g.invocation = inv
	g.hasPending = false
	g.pendingInput = nil

	_, raised, err := Outcome(ctx, g.st, inv)
	if err != nil {
		return nil, false, err
	}

	if ir, ok := raised.(*InputRequest); ok {
		g.inputRequest = ir
		g.done = false
		return ir, false, nil
	}

	g.inputRequest = nil
	g.done = true
	return nil, true, nil
}

// Send supplies answer as the response to the pending InputRequest and
// immediately advances the generator, combining SetInput and Next.
func (g *InvocationGenerator) Send(ctx context.Context, answer resource.Resource) (*InputRequest, bool, error) {
	g.SetInput(answer)
	return g.Next(ctx)
}

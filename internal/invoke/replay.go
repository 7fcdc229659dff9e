package invoke

import (
	"context"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// ExceptionOverride may substitute a value for a recorded exception at the
// point it was originally raised, letting replay resume past it instead
// of retrying the invokable. Returning nil leaves the exception in place
// (the invokable will be retried on its actual input).
type ExceptionOverride func(ctx context.Context, st *store.Store, raised resource.Reference) (resource.Resource, error)

func noOverride(context.Context, *store.Store, resource.Reference) (resource.Resource, error) {
	return nil, nil
}

// ReplayContext threads a cursor over previously recorded child
// invocations through a call tree being replayed. Each Builder consults
// the ambient ReplayContext (if any) before actually calling its
// invokable, matching by (invokable, input) equality against the next
// unconsumed recorded child.
type ReplayContext struct {
	st                *store.Store
	availableChildren []resource.Reference
	exceptionOverride ExceptionOverride
	strict            bool
}

func newReplayContext(st *store.Store, children []resource.Reference, override ExceptionOverride, strict bool) *ReplayContext {
	if override == nil {
		override = noOverride
	}
	return &ReplayContext{st: st, availableChildren: children, exceptionOverride: override, strict: strict}
}

// replayOutcome is the result of attempting to consume a matching
// recorded child for the current (invokable, input) pair.
type replayOutcome struct {
	matched       bool
	output        resource.Resource
	rerunChildren []resource.Reference
}

// consumeReplay looks for the next unconsumed recorded child whose
// request matches (invokable, input). In strict mode, any non-matching
// child encountered before a match is a ReplayError. If a match is found
// and it completed successfully (or its raised-here exception has an
// override), its output is returned directly with no re-execution. If a
// match is found but neither applies, or no match is found at all, the
// caller must actually invoke the invokable; rerunChildren seeds the
// nested ReplayContext for its own subinvocations.
func (rc *ReplayContext) consumeReplay(ctx context.Context, invokable Invokable, input resource.Resource) (replayOutcome, error) {
	wantRequest := &Request{}
	invokableRef, err := rc.st.Commit(ctx, invokable)
	if err != nil {
		return replayOutcome{}, err
	}
	inputRef, err := rc.st.Commit(ctx, input)
	if err != nil {
		return replayOutcome{}, err
	}
	wantRequest.Invokable = invokableRef
	wantRequest.Input = inputRef

	matchIndex := -1
	for i, childRef := range rc.availableChildren {
		childReq, err := rc.checkoutRequestOf(ctx, childRef)
		if err != nil {
			return replayOutcome{}, err
		}
		if childReq.Equal(wantRequest) {
			matchIndex = i
			break
		}
		if rc.strict {
			return replayOutcome{}, newReplayError(childReq.observedRefFallback(), wantRequest.observedRefFallback())
		}
	}
	if matchIndex == -1 {
		return replayOutcome{matched: false}, nil
	}

	matchedRef := rc.availableChildren[matchIndex]
	rc.availableChildren = append(append([]resource.Reference{}, rc.availableChildren[:matchIndex]...), rc.availableChildren[matchIndex+1:]...)

	child, err := rc.checkoutInvocation(ctx, matchedRef)
	if err != nil {
		return replayOutcome{}, err
	}
	response, err := rc.checkoutResponseOf(ctx, child.ResponseRef)
	if err != nil {
		return replayOutcome{}, err
	}

	if response.Output != nil {
		output, err := rc.st.Checkout(ctx, *response.Output)
		if err != nil {
			return replayOutcome{}, err
		}
		return replayOutcome{matched: true, output: output, rerunChildren: response.Children}, nil
	}

	if response.Raised != nil && response.RaisedHere {
		override, err := rc.exceptionOverride(ctx, rc.st, *response.Raised)
		if err != nil {
			return replayOutcome{}, err
		}
		if override != nil {
			return replayOutcome{matched: true, output: override, rerunChildren: response.Children}, nil
		}
	}

	return replayOutcome{matched: false, rerunChildren: response.Children}, nil
}

func (rc *ReplayContext) checkoutRequestOf(ctx context.Context, invocationRef resource.Reference) (*Request, error) {
	inv, err := rc.checkoutInvocation(ctx, invocationRef)
	if err != nil {
		return nil, err
	}
	r, err := rc.st.Checkout(ctx, inv.RequestRef)
	if err != nil {
		return nil, err
	}
	req, ok := r.(*Request)
	if !ok {
		return nil, newInvokableTypeError("checked out resource is not a Request")
	}
	return req, nil
}

func (rc *ReplayContext) checkoutResponseOf(ctx context.Context, responseRef resource.Reference) (*Response, error) {
	r, err := rc.st.Checkout(ctx, responseRef)
	if err != nil {
		return nil, err
	}
	resp, ok := r.(*Response)
	if !ok {
		return nil, newInvokableTypeError("checked out resource is not a Response")
	}
	return resp, nil
}

func (rc *ReplayContext) checkoutInvocation(ctx context.Context, ref resource.Reference) (*Invocation, error) {
	r, err := rc.st.Checkout(ctx, ref)
	if err != nil {
		return nil, err
	}
	inv, ok := r.(*Invocation)
	if !ok {
		return nil, newInvokableTypeError("checked out resource is not an Invocation")
	}
	return inv, nil
}

// observedRefFallback lets newReplayError report something useful even
// though Request has no single natural "reference" of its own; the
// invokable reference is the more diagnostic of its two fields.
func (r *Request) observedRefFallback() resource.Reference {
	return r.Invokable
}

package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// ErrCallOutsideInvocation is returned by Call when used outside of an
// active invocation, i.e. not from within an Invokable's Call method as
// reached through Invoke.
var ErrCallOutsideInvocation = errors.New("invoke: Call used outside an active invocation")

// Call journals a call to invokable on input as a subinvocation of the
// invocation currently active in ctx. Invokable implementations must
// route every call to another invokable through Call rather than calling
// its Call method directly, or the call will not be journaled and cannot
// be rewound or replayed.
func Call(ctx context.Context, invokable Invokable, input resource.Resource) (resource.Resource, error) {
	parent, ok := builderFromContext(ctx)
	if !ok {
		return nil, ErrCallOutsideInvocation
	}
	st, err := store.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}
	output, callErr, invocationRef, raisedRef := callAndCommit(ctx, st, parent, invokable, input)
	if !isStructuralInvocationError(callErr) {
		parent.registerChild(invocationRef, callErr, raisedRef)
	}
	return output, callErr
}

type invokeConfig struct {
	replayFrom        *resource.Reference
	exceptionOverride ExceptionOverride
	strict            bool
}

// InvokeOption configures a top-level Invoke call.
type InvokeOption func(*invokeConfig)

// ReplayFrom replays the invocation rooted at ref: Invoke will try to
// match the call (and every subinvocation it makes) against the
// recorded call tree under ref before actually executing anything,
// reusing recorded outputs wherever they match.
func ReplayFrom(ref resource.Reference) InvokeOption {
	return func(c *invokeConfig) { c.replayFrom = &ref }
}

// WithExceptionOverride supplies a function consulted, during replay,
// whenever the matched recorded call raised an exception at that exact
// point; returning a non-nil resource resumes replay with that resource
// as the call's output instead of retrying the call.
func WithExceptionOverride(override ExceptionOverride) InvokeOption {
	return func(c *invokeConfig) { c.exceptionOverride = override }
}

// Strict makes replay raise a ReplayError the moment a recorded child's
// request no longer matches what the invokable actually called, instead
// of silently treating it as no match and re-executing.
func Strict() InvokeOption {
	return func(c *invokeConfig) { c.strict = true }
}

// Invoke calls invokable on input, journaling the full call tree into st,
// and returns the committed Invocation. A non-nil error is returned only
// for structural invocation failures (a replay mismatch, a malformed
// call tree, a store error); ordinary errors returned by invokable's own
// Call method are recorded in the returned Invocation's Response instead,
// with a nil error here.
func Invoke(ctx context.Context, st *store.Store, invokable Invokable, input resource.Resource, opts ...InvokeOption) (*Invocation, error) {
	cfg := &invokeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx = store.WithStore(ctx, st)
	if cfg.replayFrom != nil {
		ctx = withReplayContext(ctx, newReplayContext(st, []resource.Reference{*cfg.replayFrom}, cfg.exceptionOverride, cfg.strict))
	}

	_, callErr, invocationRef, _ := callAndCommit(ctx, st, nil, invokable, input)
	if isStructuralInvocationError(callErr) {
		return nil, callErr
	}

	r, err := st.Checkout(ctx, invocationRef)
	if err != nil {
		return nil, err
	}
	invocation, ok := r.(*Invocation)
	if !ok {
		return nil, fmt.Errorf("invoke: checked out resource is not an Invocation")
	}
	return invocation, nil
}

// Outcome checks out the output or raised exception recorded for inv.
func Outcome(ctx context.Context, st *store.Store, inv *Invocation) (output resource.Resource, raised resource.Resource, err error) {
	output, err = inv.GetOutput(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	raised, err = inv.GetRaised(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	return output, raised, nil
}

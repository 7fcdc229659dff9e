package invoke

import (
	"context"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// AsyncHandle is a subinvocation launched with CallAsync that has not
// necessarily completed yet. Every launched subinvocation must have
// completed by the time the launching invokable's Call method returns, or
// the enclosing call fails with IncompleteSubinvocationError; awaiting
// each handle before returning is how a caller guarantees that.
type AsyncHandle struct {
	outputCh chan asyncOutcome
}

type asyncOutcome struct {
	output resource.Resource
	err    error
}

// CallAsync launches invokable on input concurrently with the caller and
// returns immediately with a handle to its eventual result. Unlike Call,
// the subinvocation is journaled as soon as it completes rather than
// when the caller gets around to awaiting it, so that a child's position
// among its siblings in the journal reflects real completion order, not
// launch order or Await order: the same cooperative schedule then always
// replays to the same journal regardless of actual goroutine scheduling.
// The clock tick and the journal append happen under the same lock
// acquisition (see Builder.registerChildLocked) so two children racing to
// complete can never tick in one order and append in the other.
func CallAsync(ctx context.Context, invokable AsyncInvokable, input resource.Resource) (*AsyncHandle, error) {
	parent, ok := builderFromContext(ctx)
	if !ok {
		return nil, ErrCallOutsideInvocation
	}
	st, err := store.MustFromContext(ctx)
	if err != nil {
		return nil, err
	}

	parent.asyncMu.Lock()
	if parent.asyncClock == nil {
		parent.asyncClock = newClock()
	}
	parent.asyncPending++
	parent.asyncMu.Unlock()

	var asInvokable Invokable = invokable
	h := &AsyncHandle{outputCh: make(chan asyncOutcome, 1)}

	go func() {
		output, callErr, invocationRef, raisedRef := callAndCommit(ctx, st, nil, asInvokable, input)

		parent.asyncMu.Lock()
		parent.asyncPending--
		parent.asyncClock.next()
		if !isStructuralInvocationError(callErr) {
			parent.registerChildLocked(invocationRef, callErr, raisedRef)
		}
		parent.asyncMu.Unlock()

		h.outputCh <- asyncOutcome{output: output, err: callErr}
	}()

	return h, nil
}

// Await blocks until the subinvocation completes and returns its
// outcome. It is safe to call at most once per handle.
func (h *AsyncHandle) Await(ctx context.Context) (resource.Resource, error) {
	outcome := <-h.outputCh
	return outcome.output, outcome.err
}

// AwaitAll blocks until every handle completes and returns their outputs
// in the same order as handles, independent of the order in which they
// actually finish (which is instead reflected in the journal).
func AwaitAll(ctx context.Context, handles []*AsyncHandle) ([]resource.Resource, error) {
	outputs := make([]resource.Resource, len(handles))
	var firstErr error
	for i, h := range handles {
		out, err := h.Await(ctx)
		outputs[i] = out
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return outputs, firstErr
}

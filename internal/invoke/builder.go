package invoke

import (
	"context"
	"sync"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

// Builder accumulates the journal entries produced while calling a single
// invokable: the children it calls along the way, and, if replay matched
// this call against a recorded one, the children recorded for that match
// instead of whatever children a live call would have produced.
type Builder struct {
	parent    *Builder
	invokable Invokable
	inputRef  resource.Reference

	children    []resource.Reference
	childErrors []error
	childRaised []*resource.Reference

	// replayedSubinvocations is non-nil once this call has been matched
	// against a recorded invocation (with or without an exception
	// override); it then holds the recorded children verbatim, and no
	// live children are ever recorded for this call.
	replayedSubinvocations []resource.Reference

	// asyncMu and asyncPending track CallAsync subinvocations launched by
	// this call's own invokable that have not yet completed. One still
	// pending when the call returns is an IncompleteSubinvocationError.
	asyncMu      sync.Mutex
	asyncPending int
	asyncClock   *clock
}

func (b *Builder) registerChild(ref resource.Reference, err error, raised *resource.Reference) {
	b.asyncMu.Lock()
	defer b.asyncMu.Unlock()
	b.registerChildLocked(ref, err, raised)
}

// registerChildLocked appends a child under an already-held asyncMu. Async
// completions must tick asyncClock and append in the same critical section
// (see CallAsync) so two children can never complete-then-append out of
// order under goroutine scheduling pressure.
func (b *Builder) registerChildLocked(ref resource.Reference, err error, raised *resource.Reference) {
	b.children = append(b.children, ref)
	b.childErrors = append(b.childErrors, err)
	b.childRaised = append(b.childRaised, raised)
}

// isChildException reports whether err is the very same error value a
// previously registered child already raised, in which case this call
// must not wrap it again: it records the same raised resource with
// RaisedHere set to false and keeps propagating the original error.
func (b *Builder) isChildException(err error) (*resource.Reference, bool) {
	for i, ce := range b.childErrors {
		if ce != nil && ce == err {
			return b.childRaised[i], true
		}
	}
	return nil, false
}

func isStructuralInvocationError(err error) bool {
	switch err.(type) {
	case *ReplayError, *IncompleteSubinvocationError, *InvokableTypeError,
		*InputChangedError, *RequestedTypeUndeterminedError, *InputRequestOutsideInvocationError:
		return true
	}
	return false
}

func wrapException(err error) resource.Resource {
	if ir, ok := err.(*InputRequest); ok {
		return ir
	}
	return &WrappedException{Message: err.Error()}
}

// callAndCommit runs invokable on input, journaling the call as a
// committed Request/Response/Invocation, and returns the output (on
// success), the business error that was raised (on failure, already
// recorded in the committed Response), the invocation reference, and the
// raised resource's reference (mirroring Response.Raised). A structural
// invocation error (replay mismatch, type error, ...) short-circuits
// immediately with no commit at all; it is not a business outcome of the
// invokable, it means the engine itself could not proceed.
func callAndCommit(ctx context.Context, st *store.Store, parent *Builder, invokable Invokable, input resource.Resource) (output resource.Resource, callErr error, invocationRef resource.Reference, raisedRef *resource.Reference) {
	b := &Builder{parent: parent, invokable: invokable}

	if typed, ok := invokable.(TypedInvokable); ok {
		if wantType := typed.InputType(); wantType.Digest != "" && input.TypeID().Digest != wantType.Digest {
			return nil, newInvokableTypeError("invokable %s expects input type %s but got %s",
				invokable.TypeID().Name, wantType, input.TypeID()), resource.Reference{}, nil
		}
	}

	inputRef, err := st.Commit(ctx, input)
	if err != nil {
		return nil, err, resource.Reference{}, nil
	}
	b.inputRef = inputRef

	if rc, ok := replayContextFromContext(ctx); ok {
		outcome, rerr := rc.consumeReplay(ctx, invokable, input)
		if rerr != nil {
			return nil, rerr, resource.Reference{}, nil
		}
		if outcome.matched {
			output = outcome.output
			b.replayedSubinvocations = outcome.rerunChildren
			if b.replayedSubinvocations == nil {
				b.replayedSubinvocations = []resource.Reference{}
			}
		} else {
			nested := newReplayContext(st, outcome.rerunChildren, rc.exceptionOverride, rc.strict)
			childCtx := withReplayContext(withBuilder(ctx, b), nested)
			output, callErr = invokable.Call(childCtx, input)
		}
	} else {
		childCtx := withBuilder(ctx, b)
		output, callErr = invokable.Call(childCtx, input)
	}

	if callErr != nil && isStructuralInvocationError(callErr) {
		return nil, callErr, resource.Reference{}, nil
	}

	if callErr == nil {
		if typed, ok := invokable.(TypedInvokable); ok {
			if wantType := typed.OutputType(); wantType.Digest != "" && output.TypeID().Digest != wantType.Digest {
				return nil, newInvokableTypeError("invokable %s declares output type %s but returned %s",
					invokable.TypeID().Name, wantType, output.TypeID()), resource.Reference{}, nil
			}
		}
	}

	if b.replayedSubinvocations == nil && callErr == nil {
		if changed, verr := inputChanged(input, b.inputRef); verr != nil {
			return nil, verr, resource.Reference{}, nil
		} else if changed {
			callErr = newInputChangedError(invokable.TypeID().Name)
			output = nil
		}
	}

	b.asyncMu.Lock()
	pending := b.asyncPending
	b.asyncMu.Unlock()
	if pending > 0 && callErr == nil {
		return nil, newIncompleteSubinvocationError(len(b.children), invokable.TypeID().Name), resource.Reference{}, nil
	}

	invokableRef, err := st.Commit(ctx, invokable)
	if err != nil {
		return nil, err, resource.Reference{}, nil
	}

	request := &Request{Invokable: invokableRef, Input: b.inputRef}
	requestRef, err := st.Commit(ctx, request)
	if err != nil {
		return nil, err, resource.Reference{}, nil
	}

	children := b.children
	if b.replayedSubinvocations != nil {
		children = b.replayedSubinvocations
	}

	response := &Response{Invokable: invokableRef, Children: children}

	if callErr == nil {
		outputRef, err := st.Commit(ctx, output)
		if err != nil {
			return nil, err, resource.Reference{}, nil
		}
		response.Output = &outputRef
	} else {
		if existing, isChild := b.isChildException(callErr); isChild {
			response.Raised = existing
			response.RaisedHere = false
		} else {
			raisedResource := wrapException(callErr)
			ref, err := st.Commit(ctx, raisedResource)
			if err != nil {
				return nil, err, resource.Reference{}, nil
			}
			response.Raised = &ref
			response.RaisedHere = true
		}
	}

	responseRef, err := st.Commit(ctx, response)
	if err != nil {
		return nil, err, resource.Reference{}, nil
	}

	invocation := &Invocation{RequestRef: requestRef, ResponseRef: responseRef}
	invocationRef, err = st.Commit(ctx, invocation)
	if err != nil {
		return nil, err, resource.Reference{}, nil
	}

	return output, callErr, invocationRef, response.Raised
}

// inputChanged reports whether input no longer packs to the digest it was
// committed under, i.e. the invokable mutated the resource it was given
// rather than returning a new one.
func inputChanged(input resource.Resource, committed resource.Reference) (bool, error) {
	packed, err := resource.Pack(input)
	if err != nil {
		return false, err
	}
	digest, err := resource.Digest(packed)
	if err != nil {
		return false, err
	}
	return digest != committed.Digest, nil
}

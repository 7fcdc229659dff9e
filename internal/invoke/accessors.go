package invoke

import (
	"context"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
)

func (inv *Invocation) checkoutResponse(ctx context.Context, st *store.Store) (*Response, error) {
	r, err := st.Checkout(ctx, inv.ResponseRef)
	if err != nil {
		return nil, err
	}
	resp, ok := r.(*Response)
	if !ok {
		return nil, newInvokableTypeError("checked out resource is not a Response")
	}
	return resp, nil
}

// Successful reports whether inv completed with an output rather than a
// raised exception (or has not completed at all).
func (inv *Invocation) Successful(ctx context.Context, st *store.Store) (bool, error) {
	resp, err := inv.checkoutResponse(ctx, st)
	if err != nil {
		return false, err
	}
	return resp.Output != nil, nil
}

// GetOutput checks out and returns inv's recorded output, or nil if it
// has none (either still pending or it raised instead).
func (inv *Invocation) GetOutput(ctx context.Context, st *store.Store) (resource.Resource, error) {
	resp, err := inv.checkoutResponse(ctx, st)
	if err != nil {
		return nil, err
	}
	if resp.Output == nil {
		return nil, nil
	}
	return st.Checkout(ctx, *resp.Output)
}

// GetRaised checks out and returns inv's recorded raised exception, or
// nil if it completed successfully or has not completed.
func (inv *Invocation) GetRaised(ctx context.Context, st *store.Store) (resource.Resource, error) {
	resp, err := inv.checkoutResponse(ctx, st)
	if err != nil {
		return nil, err
	}
	if resp.Raised == nil {
		return nil, nil
	}
	return st.Checkout(ctx, *resp.Raised)
}

// GetRaisedHere reports whether inv's exception (if any) originated in
// its own invokable rather than one of its children.
func (inv *Invocation) GetRaisedHere(ctx context.Context, st *store.Store) (bool, error) {
	resp, err := inv.checkoutResponse(ctx, st)
	if err != nil {
		return false, err
	}
	return resp.RaisedHere, nil
}

// GetChildren checks out and returns every subinvocation recorded under
// inv, in journal order.
func (inv *Invocation) GetChildren(ctx context.Context, st *store.Store) ([]*Invocation, error) {
	resp, err := inv.checkoutResponse(ctx, st)
	if err != nil {
		return nil, err
	}
	children := make([]*Invocation, len(resp.Children))
	for i, ref := range resp.Children {
		r, err := st.Checkout(ctx, ref)
		if err != nil {
			return nil, err
		}
		child, ok := r.(*Invocation)
		if !ok {
			return nil, newInvokableTypeError("checked out resource is not an Invocation")
		}
		children[i] = child
	}
	return children, nil
}

// GetChild checks out and returns the i'th subinvocation recorded under
// inv.
func (inv *Invocation) GetChild(ctx context.Context, st *store.Store, i int) (*Invocation, error) {
	resp, err := inv.checkoutResponse(ctx, st)
	if err != nil {
		return nil, err
	}
	r, err := st.Checkout(ctx, resp.Children[i])
	if err != nil {
		return nil, err
	}
	child, ok := r.(*Invocation)
	if !ok {
		return nil, newInvokableTypeError("checked out resource is not an Invocation")
	}
	return child, nil
}

// ClearOutput is Rewind(ctx, st, inv, 0): it clears inv's recorded
// output or exception while keeping every child, so a subsequent
// ReplayFrom re-derives the outcome from the unchanged children instead
// of re-running them too.
func ClearOutput(ctx context.Context, st *store.Store, inv *Invocation) (*Invocation, error) {
	return Rewind(ctx, st, inv, 0)
}

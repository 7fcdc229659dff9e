package invoke

import (
	"context"
	"fmt"

	"github.com/relayrun/enact/internal/store"
)

// Rewind returns a new Invocation identical to inv but with its output
// cleared and its last n children dropped, leaving the rest of the call
// tree untouched. It is pure: inv and everything it references are left
// exactly as committed; Rewind only ever adds new resources to st.
//
// Rewinding is what makes replay useful for iterating on a call tree:
// Invoke the rewound Invocation's own request with ReplayFrom(rewound's
// reference) to re-run only the dropped children (and anything that
// depends on their outputs) while reusing everything kept.
func Rewind(ctx context.Context, st *store.Store, inv *Invocation, n int) (*Invocation, error) {
	if n < 0 {
		return nil, fmt.Errorf("invoke: rewind count must be non-negative, got %d", n)
	}

	r, err := st.Checkout(ctx, inv.ResponseRef)
	if err != nil {
		return nil, err
	}
	response, ok := r.(*Response)
	if !ok {
		return nil, newInvokableTypeError("checked out resource is not a Response")
	}

	rewound := response.Clone()
	rewound.Output = nil
	rewound.Raised = nil
	rewound.RaisedHere = false

	keep := len(rewound.Children) - n
	if keep < 0 {
		keep = 0
	}
	rewound.Children = rewound.Children[:keep]

	responseRef, err := st.Commit(ctx, rewound)
	if err != nil {
		return nil, err
	}

	newInvocation := &Invocation{RequestRef: inv.RequestRef, ResponseRef: responseRef}
	newInvocationRef, err := st.Commit(ctx, newInvocation)
	if err != nil {
		return nil, err
	}

	out, err := st.Checkout(ctx, newInvocationRef)
	if err != nil {
		return nil, err
	}
	result, ok := out.(*Invocation)
	if !ok {
		return nil, newInvokableTypeError("checked out resource is not an Invocation")
	}
	return result, nil
}

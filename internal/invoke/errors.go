package invoke

import (
	"errors"
	"fmt"

	"github.com/relayrun/enact/internal/resource"
)

// InvocationErrorCode categorizes the structured errors this package
// raises, mirroring the RuntimeErrorCode convention this codebase already
// uses for its own engine errors.
type InvocationErrorCode string

const (
	ErrCodeReplayMismatch        InvocationErrorCode = "REPLAY_MISMATCH"
	ErrCodeIncompleteChild       InvocationErrorCode = "INCOMPLETE_CHILD"
	ErrCodeInvokableType         InvocationErrorCode = "INVOKABLE_TYPE"
	ErrCodeInputChanged          InvocationErrorCode = "INPUT_CHANGED"
	ErrCodeRequestedTypeUnknown  InvocationErrorCode = "REQUESTED_TYPE_UNDETERMINED"
	ErrCodeInputRequestNoBuilder InvocationErrorCode = "INPUT_REQUEST_OUTSIDE_INVOCATION"
	ErrCodeInputRequired         InvocationErrorCode = "INPUT_REQUIRED"
)

// InvocationError is the structured error type for everything that can go
// wrong building, replaying, or driving an invocation.
type InvocationError struct {
	Code    InvocationErrorCode
	Message string
	Details map[string]string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code InvocationErrorCode, format string, args ...any) *InvocationError {
	return &InvocationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ReplayError reports that a recorded child invocation's (invokable,
// input) pair did not match what the invokable was actually called with
// during a strict replay.
type ReplayError struct {
	*InvocationError
	Expected resource.Reference
	Observed resource.Reference
}

func newReplayError(expected, observed resource.Reference) *ReplayError {
	return &ReplayError{
		InvocationError: newError(ErrCodeReplayMismatch,
			"expected request %s but observed %s; ensure calls to subinvokables are deterministic, or replay non-strict",
			expected, observed),
		Expected: expected,
		Observed: observed,
	}
}

// IsReplayError reports whether err (or something it wraps) is a
// ReplayError.
func IsReplayError(err error) bool {
	var target *ReplayError
	return errors.As(err, &target)
}

// IncompleteSubinvocationError reports that a child Builder never
// completed (never received a response) by the time its parent finished.
type IncompleteSubinvocationError struct {
	*InvocationError
}

func newIncompleteSubinvocationError(index int, invokableName string) *IncompleteSubinvocationError {
	return &IncompleteSubinvocationError{newError(ErrCodeIncompleteChild,
		"subinvocation %d of %s did not complete before its parent returned", index, invokableName)}
}

// IsIncompleteSubinvocation reports whether err is an
// IncompleteSubinvocationError.
func IsIncompleteSubinvocation(err error) bool {
	var target *IncompleteSubinvocationError
	return errors.As(err, &target)
}

// InvokableTypeError reports a type mismatch on an invokable's declared
// input/output type, or on an exception override's type.
type InvokableTypeError struct {
	*InvocationError
}

func newInvokableTypeError(format string, args ...any) *InvokableTypeError {
	return &InvokableTypeError{newError(ErrCodeInvokableType, format, args...)}
}

// IsInvokableTypeError reports whether err is an InvokableTypeError.
func IsInvokableTypeError(err error) bool {
	var target *InvokableTypeError
	return errors.As(err, &target)
}

// InputChangedError reports that a Call implementation mutated the input
// resource it was given, which only the invokable's own return value may
// do (by returning a different resource, not by aliasing the input).
type InputChangedError struct {
	*InvocationError
}

func newInputChangedError(invokableName string) *InputChangedError {
	return &InputChangedError{newError(ErrCodeInputChanged,
		"input changed during invocation of %s; only the invokable may change", invokableName)}
}

// IsInputChanged reports whether err is an InputChangedError.
func IsInputChanged(err error) bool {
	var target *InputChangedError
	return errors.As(err, &target)
}

// RequestedTypeUndeterminedError reports that RequestInput was called
// without an explicit requested type and the enclosing invokable has no
// declared output type to infer it from.
type RequestedTypeUndeterminedError struct {
	*InvocationError
}

func newRequestedTypeUndeterminedError() *RequestedTypeUndeterminedError {
	return &RequestedTypeUndeterminedError{newError(ErrCodeRequestedTypeUnknown,
		"requested type must be specified when the enclosing invokable's output type is undetermined")}
}

// InputRequestOutsideInvocationError reports that RequestInput was called
// with no active Builder in context, i.e. outside of Invoke.
type InputRequestOutsideInvocationError struct {
	*InvocationError
}

func newInputRequestOutsideInvocationError() *InputRequestOutsideInvocationError {
	return &InputRequestOutsideInvocationError{newError(ErrCodeInputRequestNoBuilder,
		"request_input called outside of an active invocation")}
}

// InputRequiredError is returned by InvocationGenerator.Next when the
// pending InputRequest has not been answered via SetInput or Send.
type InputRequiredError struct {
	*InvocationError
}

func newInputRequiredError() *InputRequiredError {
	return &InputRequiredError{newError(ErrCodeInputRequired,
		"an input request is pending; call SetInput or Send before Next")}
}

// IsInputRequired reports whether err is an InputRequiredError.
func IsInputRequired(err error) bool {
	var target *InputRequiredError
	return errors.As(err, &target)
}

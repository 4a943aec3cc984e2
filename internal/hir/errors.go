package hir

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error taxonomy, spec.md §7. Bailout is not an error in the Go sense: the
// fold/builder functions that can bail out return (result, ok bool)
// instead of an error. InternalError, ExhaustionError and IntrinsicError
// are the three taxonomy members that do propagate as Go errors.

// InternalError signals an invariant (spec.md §3) violated during
// construction or rewrite. Fatal: the enclosing compilation aborts.
type InternalError struct {
	cause error
}

func (e *InternalError) Error() string { return "hir: internal inconsistency: " + e.cause.Error() }
func (e *InternalError) Unwrap() error { return e.cause }

func errInternal(format string, args ...interface{}) error {
	return &InternalError{cause: errors.WithStack(fmt.Errorf(format, args...))}
}

// ExhaustionError signals the arena could not grow. Fatal: the
// compilation aborts and the runtime falls back to the interpreter
// forever for this unit (spec.md §7).
type ExhaustionError struct {
	Requested int
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("hir: arena exhausted acquiring %d bytes", e.Requested)
}

// IntrinsicError signals the intrinsic folder rejected non-typed
// arguments; the unfolded ICall remains in the graph and is handled at
// runtime (spec.md §7). Not fatal — callers that only care about whether a
// fold happened should prefer the (node, ok) fold-function return shape;
// this type exists for call sites that want to log the specific reason.
type IntrinsicError struct {
	Name string
}

func (e *IntrinsicError) Error() string {
	return fmt.Sprintf("hir: intrinsic %q not folded: argument types unresolved at compile time", e.Name)
}

package promise

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrChainingCycle is the rejection reason of a promise that was resolved
	// with itself.
	ErrChainingCycle = errors.New("promise: chaining cycle detected")

	// ErrNilReason replaces a nil error passed as a rejection reason, so that
	// a rejected promise always carries a non-nil reason.
	ErrNilReason = errors.New("promise: rejected with a nil reason")
)

// AggregateError is the rejection reason produced by Any when every input
// has rejected. It carries each input's reason, in input order.
type AggregateError struct {
	reasons []error
}

func newAggregateError(reasons []error) *AggregateError {
	return &AggregateError{reasons: reasons}
}

func (e *AggregateError) Error() string {
	if len(e.reasons) == 0 {
		return "promise: all promises were rejected"
	}

	b := strings.Builder{}
	b.WriteString("promise: all promises were rejected: ")
	for i, err := range e.reasons {
		if i != 0 {
			b.WriteString("; ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Reasons returns the underlying rejection reasons, in input order.
func (e *AggregateError) Reasons() []error { return e.reasons }

func (e *AggregateError) Unwrap() []error { return e.reasons }

// PanicError wraps a non-error panic value recovered from an executor, a
// handler, or a foreign thenable's Then method.
type PanicError struct {
	value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("promise: recovered panic: %v", e.value)
}

// Value returns the recovered panic value.
func (e *PanicError) Value() interface{} { return e.value }

// panicToError normalizes a recovered panic value into a rejection reason.
// Panic values that already are errors pass through unchanged.
func panicToError(v interface{}) error {
	if err, ok := v.(error); ok && err != nil {
		return err
	}
	return &PanicError{value: v}
}

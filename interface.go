package promise

import "context"

type State string

const (
	StatePending   = State("pending")
	StateFulfilled = State("fulfilled")
	StateRejected  = State("rejected")
)

// Resolver and Rejector are the two callbacks handed to an executor. Calling
// either settles the promise; only the first call has any effect.
type Resolver func(value interface{})
type Rejector func(reason error)

// FulfillHandler consumes a fulfillment value. Returning a non-nil err
// rejects the downstream promise; returning a *Promise or a Thenable defers
// it until that value settles.
type FulfillHandler func(value interface{}) (result interface{}, err error)

// RejectHandler consumes a rejection reason. It may recover the chain by
// returning a result with a nil err, or keep it rejected by returning the
// reason (or a new error) as err.
type RejectHandler func(reason error) (result interface{}, err error)

// FinallyHandler runs regardless of outcome and receives nothing. Its result
// is discarded unless it is a *Promise or a Thenable, in which case the
// original outcome is withheld until that value settles; a non-nil err
// overrides the original outcome with a rejection.
type FinallyHandler func() (result interface{}, err error)

// Thenable is the duck-typed capability that makes cross-implementation
// interop work: any value exposing a compatible Then method is adopted by
// the resolution procedure as if it were a promise.
type Thenable interface {
	Then(resolve Resolver, reject Rejector)
}

// Promiser is the public surface of a Promise.
type Promiser interface {
	Then(onFulfilled FulfillHandler, onRejected RejectHandler) *Promise
	Catch(onRejected RejectHandler) *Promise
	Finally(onFinally FinallyHandler) *Promise
	State() State
	Done() <-chan struct{}
	Result() (interface{}, error)
	ResultWithContext(ctx context.Context) (interface{}, error)
}

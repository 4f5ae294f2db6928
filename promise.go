package promise

import (
	"context"
	"sync"
)

// Promise is the deferred result of an asynchronous computation. It starts
// pending and settles exactly once, either fulfilled with a value or
// rejected with an error; the settled outcome is immutable.
type Promise struct {
	mu        sync.Mutex
	scheduler Scheduler

	state  State
	value  interface{}
	reason error

	// reactions queued while pending, drained exactly once at settlement,
	// in registration order.
	reactions []*reaction

	// closed when the promise settles.
	done chan struct{}
}

// reaction is one registered Then call: the pair of handlers plus the
// downstream promise they feed. It is consumed exactly once.
type reaction struct {
	onFulfilled FulfillHandler
	onRejected  RejectHandler
	downstream  *Promise
}

func newPromise(s Scheduler) *Promise {
	return &Promise{
		scheduler: s,
		state:     StatePending,
		done:      make(chan struct{}),
	}
}

// New creates a Promise and invokes executor synchronously, before New
// returns. The executor settles the promise through its resolve and reject
// callbacks; a panic inside it rejects the promise with the panic value.
func New(executor func(resolve Resolver, reject Rejector)) *Promise {
	return NewWithScheduler(DefaultScheduler(), executor)
}

// NewWithScheduler is New with an explicit Scheduler. Every promise derived
// from this one through Then, Catch and Finally inherits the scheduler.
func NewWithScheduler(s Scheduler, executor func(resolve Resolver, reject Rejector)) *Promise {
	if executor == nil {
		panic("promise: nil executor")
	}
	if s == nil {
		s = DefaultScheduler()
	}

	p := newPromise(s)

	func() {
		defer func() {
			if v := recover(); v != nil {
				p.settleRejected(panicToError(v))
			}
		}()

		executor(p.resolve, p.settleRejected)
	}()

	return p
}

// Pending creates a promise that settles only by adoption, typically never.
// Useful as a "never settles" input to the combinators.
func Pending() *Promise {
	return newPromise(DefaultScheduler())
}

// Resolve creates a promise resolved with value. A plain value fulfills
// immediately; a *Promise or Thenable value is adopted, so the returned
// promise tracks its eventual outcome.
func Resolve(value interface{}) *Promise {
	p := newPromise(DefaultScheduler())
	p.resolve(value)

	return p
}

// Reject creates a promise rejected with reason.
func Reject(reason error) *Promise {
	p := newPromise(DefaultScheduler())
	p.settleRejected(reason)

	return p
}

// Then registers handlers for the promise's outcome and returns the
// downstream promise they feed. Either handler may be nil: a nil onFulfilled
// passes the value through, a nil onRejected re-rejects with the same
// reason, which is what lets errors fall through a chain to the nearest
// Catch.
//
// Handlers never run before Then returns, even on a settled promise.
func (p *Promise) Then(onFulfilled FulfillHandler, onRejected RejectHandler) *Promise {
	return p.registerReaction(onFulfilled, onRejected)
}

// Catch is Then with only a rejection handler.
func (p *Promise) Catch(onRejected RejectHandler) *Promise {
	return p.Then(nil, onRejected)
}

// Finally registers a handler that runs once the promise settles, fulfilled
// or rejected, and passes the original outcome through unchanged. The
// handler can delay settlement by returning a *Promise or Thenable, and can
// override the outcome only by failing: a non-nil error (or a panic) rejects
// the downstream promise.
func (p *Promise) Finally(onFinally FinallyHandler) *Promise {
	if onFinally == nil {
		return p.Then(nil, nil)
	}

	return p.Then(
		func(value interface{}) (interface{}, error) {
			return runFinally(p.scheduler, onFinally, StateFulfilled, value, nil)
		},
		func(reason error) (interface{}, error) {
			return runFinally(p.scheduler, onFinally, StateRejected, nil, reason)
		},
	)
}

// runFinally invokes the finally handler and arranges for the original
// outcome to flow through, gated on any promise-like value the handler
// returned.
func runFinally(s Scheduler, onFinally FinallyHandler, settled State, value interface{}, reason error) (interface{}, error) {
	result, err := onFinally()
	if err != nil {
		return nil, err
	}

	restore := func(interface{}) (interface{}, error) {
		if settled == StateRejected {
			return nil, reason
		}
		return value, nil
	}

	if !isPromiseLike(result) {
		return restore(nil)
	}

	gate := newPromise(s)
	gate.resolve(result)

	// the gate's rejection, if any, falls through restore's nil onRejected
	// and overrides the original outcome.
	return gate.Then(restore, nil), nil
}

func isPromiseLike(v interface{}) bool {
	switch v.(type) {
	case *Promise, Thenable:
		return true
	default:
		return false
	}
}

// State returns the current state without waiting.
func (p *Promise) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Done returns a channel that is closed once the promise settles.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

// Result blocks until the promise settles, then returns its value and
// reason. Exactly one of the two is meaningful: the reason is nil on
// fulfillment and non-nil on rejection.
//
// Do not call Result from a handler running on the same Loop the promise
// settles on; the loop cannot make progress while blocked.
func (p *Promise) Result() (interface{}, error) {
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.value, p.reason
}

// ResultWithContext is Result, giving up when ctx is done. Abandoning the
// wait does not affect the promise; it will still settle on its own terms.
func (p *Promise) ResultWithContext(ctx context.Context) (interface{}, error) {
	select {
	case <-p.done:
		return p.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// registerReaction creates the downstream promise for one Then call. A
// reaction against a settled promise takes the same deferred path as one
// drained at settlement time, so both cases observe identical ordering.
func (p *Promise) registerReaction(onFulfilled FulfillHandler, onRejected RejectHandler) *Promise {
	downstream := newPromise(p.scheduler)
	r := &reaction{
		onFulfilled: onFulfilled,
		onRejected:  onRejected,
		downstream:  downstream,
	}

	p.mu.Lock()
	if p.state == StatePending {
		p.reactions = append(p.reactions, r)
		p.mu.Unlock()

		return downstream
	}
	state, value, reason := p.state, p.value, p.reason
	p.mu.Unlock()

	p.dispatch(r, state, value, reason)

	return downstream
}

func (p *Promise) settleFulfilled(value interface{}) {
	p.settle(StateFulfilled, value, nil)
}

func (p *Promise) settleRejected(reason error) {
	if reason == nil {
		reason = ErrNilReason
	}

	p.settle(StateRejected, nil, reason)
}

// settle performs the one-time pending -> settled transition and drains the
// queued reactions, in registration order, through the scheduler. Settling
// an already-settled promise is a no-op.
func (p *Promise) settle(state State, value interface{}, reason error) {
	p.mu.Lock()
	if p.state != StatePending {
		p.mu.Unlock()

		return
	}
	p.state = state
	p.value = value
	p.reason = reason
	drained := p.reactions
	p.reactions = nil
	p.mu.Unlock()

	close(p.done)

	for _, r := range drained {
		p.dispatch(r, state, value, reason)
	}
}

func (p *Promise) dispatch(r *reaction, state State, value interface{}, reason error) {
	p.scheduler.Async(func() {
		r.deliver(state, value, reason)
	})
}

// deliver runs the applicable handler and feeds its result through the
// resolution procedure into the downstream promise. Always called from a
// scheduler task, never synchronously from Then or settle.
func (r *reaction) deliver(state State, value interface{}, reason error) {
	switch state {
	case StateFulfilled:
		if r.onFulfilled == nil {
			r.downstream.settleFulfilled(value)

			return
		}

		result, err := runHandler(func() (interface{}, error) {
			return r.onFulfilled(value)
		})
		if err != nil {
			r.downstream.settleRejected(err)

			return
		}

		r.downstream.resolve(result)

	case StateRejected:
		if r.onRejected == nil {
			r.downstream.settleRejected(reason)

			return
		}

		result, err := runHandler(func() (interface{}, error) {
			return r.onRejected(reason)
		})
		if err != nil {
			r.downstream.settleRejected(err)

			return
		}

		r.downstream.resolve(result)
	}
}

// runHandler guards a handler invocation: a panic becomes a rejection of the
// downstream promise, never a crash of the scheduling loop.
func runHandler(handler func() (interface{}, error)) (result interface{}, err error) {
	defer func() {
		if v := recover(); v != nil {
			result, err = nil, panicToError(v)
		}
	}()

	return handler()
}

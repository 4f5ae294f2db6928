package promise

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fulfillingThenable is a foreign thenable that fulfills immediately.
type fulfillingThenable struct {
	value interface{}
}

func (ft fulfillingThenable) Then(resolve Resolver, reject Rejector) {
	resolve(ft.value)
}

// rejectingThenable is a foreign thenable that rejects immediately.
type rejectingThenable struct {
	reason error
}

func (rt rejectingThenable) Then(resolve Resolver, reject Rejector) {
	reject(rt.reason)
}

// misbehavingThenable settles more than once and may panic afterwards.
type misbehavingThenable struct {
	calls []func(resolve Resolver, reject Rejector)
}

func (mt misbehavingThenable) Then(resolve Resolver, reject Rejector) {
	for _, call := range mt.calls {
		call(resolve, reject)
	}
}

// panickyThenable panics before settling anything.
type panickyThenable struct {
	panicValue interface{}
}

func (pt panickyThenable) Then(resolve Resolver, reject Rejector) {
	panic(pt.panicValue)
}

func TestResolutionSelfCycle(t *testing.T) {
	t.Run("Resolving a promise with itself rejects with ErrChainingCycle", func(t *testing.T) {
		scheduler := newStubScheduler()

		var resolve Resolver
		promise := NewWithScheduler(scheduler, func(res Resolver, rej Rejector) {
			resolve = res
		})

		resolve(promise)

		require.Equal(t, StateRejected, promise.State())
		require.Same(t, ErrChainingCycle, promise.reason)
	})

	t.Run("A handler returning its own downstream promise rejects it", func(t *testing.T) {
		scheduler := newStubScheduler()
		source := NewWithScheduler(scheduler, func(resolve Resolver, reject Rejector) {
			resolve(nil)
		})

		var chained *Promise
		chained = source.Then(func(value interface{}) (interface{}, error) {
			return chained, nil
		}, nil)

		scheduler.flush()

		require.Equal(t, StateRejected, chained.State())
		require.Same(t, ErrChainingCycle, chained.reason)
	})
}

func TestResolutionAdoption(t *testing.T) {
	t.Run("Adopting a pending promise tracks its eventual fulfillment", func(t *testing.T) {
		scheduler := newStubScheduler()

		var inner Resolver
		pending := NewWithScheduler(scheduler, func(resolve Resolver, reject Rejector) {
			inner = resolve
		})

		var resolve Resolver
		promise := NewWithScheduler(scheduler, func(res Resolver, rej Rejector) {
			resolve = res
		})

		resolve(pending)
		scheduler.flush()
		require.Equal(t, StatePending, promise.State())

		inner(123)
		scheduler.flush()
		require.Equal(t, StateFulfilled, promise.State())
		require.Equal(t, 123, promise.value)
	})

	t.Run("Adopting a rejected promise tracks its rejection", func(t *testing.T) {
		reason := errors.New("inner reason")

		_, err := Resolve(Reject(reason)).Result()

		require.Same(t, reason, err)
	})

	t.Run("Adoption chains through promises resolving to promises", func(t *testing.T) {
		value, err := Resolve(Resolve(Resolve(123))).Result()

		require.NoError(t, err)
		require.Equal(t, 123, value)
	})
}

func TestResolutionThenable(t *testing.T) {
	t.Run("A thenable returned from a handler fulfills the downstream promise", func(t *testing.T) {
		value, err := Resolve(nil).Then(func(interface{}) (interface{}, error) {
			return fulfillingThenable{value: 42}, nil
		}, nil).Result()

		require.NoError(t, err)
		require.Equal(t, 42, value)
	})

	t.Run("A rejecting thenable rejects the downstream promise", func(t *testing.T) {
		reason := errors.New("thenable reason")

		_, err := Resolve(rejectingThenable{reason: reason}).Result()

		require.Same(t, reason, err)
	})

	t.Run("A thenable resolving to another thenable re-enters the procedure", func(t *testing.T) {
		value, err := Resolve(fulfillingThenable{
			value: fulfillingThenable{value: 42},
		}).Result()

		require.NoError(t, err)
		require.Equal(t, 42, value)
	})

	t.Run("The thenable's Then call is deferred", func(t *testing.T) {
		scheduler := newStubScheduler()

		promise := NewWithScheduler(scheduler, func(resolve Resolver, reject Rejector) {
			resolve(fulfillingThenable{value: 42})
		})

		require.Equal(t, StatePending, promise.State())

		scheduler.flush()

		require.Equal(t, StateFulfilled, promise.State())
		require.Equal(t, 42, promise.value)
	})
}

func TestResolutionLatch(t *testing.T) {
	t.Run("Only the first resolve counts", func(t *testing.T) {
		scheduler := newStubScheduler()

		promise := NewWithScheduler(scheduler, func(resolve Resolver, reject Rejector) {
			resolve(misbehavingThenable{calls: []func(Resolver, Rejector){
				func(resolve Resolver, _ Rejector) { resolve(1) },
				func(resolve Resolver, _ Rejector) { resolve(2) },
			}})
		})

		scheduler.flush()

		require.Equal(t, StateFulfilled, promise.State())
		require.Equal(t, 1, promise.value)
	})

	t.Run("A reject after a resolve is ignored", func(t *testing.T) {
		scheduler := newStubScheduler()

		promise := NewWithScheduler(scheduler, func(resolve Resolver, reject Rejector) {
			resolve(misbehavingThenable{calls: []func(Resolver, Rejector){
				func(resolve Resolver, _ Rejector) { resolve(1) },
				func(_ Resolver, reject Rejector) { reject(errors.New("too late")) },
			}})
		})

		scheduler.flush()

		require.Equal(t, StateFulfilled, promise.State())
		require.Equal(t, 1, promise.value)
	})

	t.Run("A panic before the latch fires rejects", func(t *testing.T) {
		scheduler := newStubScheduler()
		reason := errors.New("broken thenable")

		promise := NewWithScheduler(scheduler, func(resolve Resolver, reject Rejector) {
			resolve(panickyThenable{panicValue: reason})
		})

		scheduler.flush()

		require.Equal(t, StateRejected, promise.State())
		require.Same(t, reason, promise.reason)
	})

	t.Run("A panic after the latch fires is swallowed", func(t *testing.T) {
		scheduler := newStubScheduler()

		promise := NewWithScheduler(scheduler, func(resolve Resolver, reject Rejector) {
			resolve(misbehavingThenable{calls: []func(Resolver, Rejector){
				func(resolve Resolver, _ Rejector) { resolve(1) },
				func(Resolver, Rejector) { panic("after the fact") },
			}})
		})

		scheduler.flush()

		require.Equal(t, StateFulfilled, promise.State())
		require.Equal(t, 1, promise.value)
	})
}

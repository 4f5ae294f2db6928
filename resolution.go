package promise

import "sync/atomic"

// resolve runs the resolution procedure against p for a value produced by a
// handler, an executor, or the static Resolve: a direct self-reference
// rejects, a *Promise is adopted, a foreign Thenable is adopted through a
// call-once latch, and anything else fulfills p as a plain value.
func (p *Promise) resolve(x interface{}) {
	if q, ok := x.(*Promise); ok {
		if q == p {
			p.settleRejected(ErrChainingCycle)

			return
		}

		p.adopt(q)

		return
	}

	if t, ok := x.(Thenable); ok {
		p.adoptThenable(t)

		return
	}

	p.settleFulfilled(x)
}

// adopt makes p track q's eventual outcome. A reaction with nil handlers is
// exactly pass-through propagation, so adoption reuses the ordinary reaction
// path, including its deferred delivery.
func (p *Promise) adopt(q *Promise) {
	r := &reaction{downstream: p}

	q.mu.Lock()
	if q.state == StatePending {
		q.reactions = append(q.reactions, r)
		q.mu.Unlock()

		return
	}
	state, value, reason := q.state, q.value, q.reason
	q.mu.Unlock()

	q.dispatch(r, state, value, reason)
}

// adoptThenable adopts a foreign thenable by calling its Then method with
// resolve/reject callbacks, deferred onto the scheduler.
//
// The latch is per adoption, captured by the closures below: only the first
// settlement attempt counts, whether it comes from either callback or from a
// panic inside Then. A panic after the latch has fired is swallowed.
func (p *Promise) adoptThenable(t Thenable) {
	var latch atomic.Bool

	p.scheduler.Async(func() {
		defer func() {
			if v := recover(); v != nil && latch.CompareAndSwap(false, true) {
				p.settleRejected(panicToError(v))
			}
		}()

		t.Then(
			func(value interface{}) {
				if latch.CompareAndSwap(false, true) {
					// the thenable may hand over another promise-like value,
					// so re-enter the full procedure.
					p.resolve(value)
				}
			},
			func(reason error) {
				if latch.CompareAndSwap(false, true) {
					p.settleRejected(reason)
				}
			},
		)
	})
}

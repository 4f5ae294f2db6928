package promise

import "sync"

// Settlement is one tagged slot in an AllSettled result: the Status of the
// input at that index, plus its Value or Reason.
type Settlement struct {
	Status State
	Value  interface{}
	Reason error
}

// All returns a promise that fulfills with the inputs' values, in input
// order, once every input has fulfilled, or rejects with the first rejection
// reason encountered, without waiting for the remaining inputs. No inputs
// fulfill immediately with an empty slice.
//
// Non-promise inputs count as already fulfilled with themselves.
func All(inputs ...interface{}) *Promise {
	p := newPromise(DefaultScheduler())

	values := make([]interface{}, len(inputs))
	if len(inputs) == 0 {
		p.settleFulfilled(values)

		return p
	}

	var (
		mu        sync.Mutex
		remaining = len(inputs)
	)

	for i, input := range inputs {
		i := i

		toPromise(p.scheduler, input).Then(
			func(value interface{}) (interface{}, error) {
				mu.Lock()
				values[i] = value
				remaining--
				settled := remaining == 0
				mu.Unlock()

				if settled {
					p.settleFulfilled(values)
				}

				return nil, nil
			},
			func(reason error) (interface{}, error) {
				p.settleRejected(reason)

				return nil, nil
			},
		)
	}

	return p
}

// Race returns a promise that settles the way the first input to settle
// does. Ties between already-settled inputs go to the lower input index,
// because reactions are registered and drained in that order. No inputs
// means the result stays pending forever.
func Race(inputs ...interface{}) *Promise {
	p := newPromise(DefaultScheduler())

	for _, input := range inputs {
		toPromise(p.scheduler, input).Then(
			func(value interface{}) (interface{}, error) {
				p.settleFulfilled(value)

				return nil, nil
			},
			func(reason error) (interface{}, error) {
				p.settleRejected(reason)

				return nil, nil
			},
		)
	}

	return p
}

// AllSettled returns a promise that fulfills with one Settlement per input,
// in input order, once every input has settled. It never rejects.
func AllSettled(inputs ...interface{}) *Promise {
	p := newPromise(DefaultScheduler())

	settlements := make([]Settlement, len(inputs))
	if len(inputs) == 0 {
		p.settleFulfilled(settlements)

		return p
	}

	var (
		mu        sync.Mutex
		remaining = len(inputs)
	)

	record := func(i int, s Settlement) {
		mu.Lock()
		settlements[i] = s
		remaining--
		settled := remaining == 0
		mu.Unlock()

		if settled {
			p.settleFulfilled(settlements)
		}
	}

	for i, input := range inputs {
		i := i

		toPromise(p.scheduler, input).Then(
			func(value interface{}) (interface{}, error) {
				record(i, Settlement{Status: StateFulfilled, Value: value})

				return nil, nil
			},
			func(reason error) (interface{}, error) {
				record(i, Settlement{Status: StateRejected, Reason: reason})

				return nil, nil
			},
		)
	}

	return p
}

// Any returns a promise that fulfills with the first fulfillment seen, and
// rejects only once every input has rejected, with an *AggregateError
// carrying all reasons in input order. No inputs reject immediately with an
// empty aggregate.
func Any(inputs ...interface{}) *Promise {
	p := newPromise(DefaultScheduler())

	if len(inputs) == 0 {
		p.settleRejected(newAggregateError(nil))

		return p
	}

	var (
		mu        sync.Mutex
		reasons   = make([]error, len(inputs))
		remaining = len(inputs)
	)

	for i, input := range inputs {
		i := i

		toPromise(p.scheduler, input).Then(
			func(value interface{}) (interface{}, error) {
				p.settleFulfilled(value)

				return nil, nil
			},
			func(reason error) (interface{}, error) {
				mu.Lock()
				reasons[i] = reason
				remaining--
				rejected := remaining == 0
				mu.Unlock()

				if rejected {
					p.settleRejected(newAggregateError(reasons))
				}

				return nil, nil
			},
		)
	}

	return p
}

// toPromise wraps a combinator input: promises pass through, everything else
// resolves the way the static Resolve would, including thenable adoption.
func toPromise(s Scheduler, input interface{}) *Promise {
	if q, ok := input.(*Promise); ok {
		return q
	}

	q := newPromise(s)
	q.resolve(input)

	return q
}

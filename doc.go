// Package promise provides a deferred-result primitive modelled after the
// Promise/A+ contract: a container for the eventual outcome of an
// asynchronous computation, with chaining, a formal resolution procedure,
// and strict settle-once semantics.
//
// A Promise starts pending and settles exactly once, either fulfilled with a
// value or rejected with an error. Handlers registered through Then, Catch
// and Finally always run asynchronously, on the promise's Scheduler, even
// when the promise is already settled at registration time. Handlers on one
// promise run in registration order.
//
//	p := promise.New(func(resolve promise.Resolver, reject promise.Rejector) {
//		resolve(42)
//	})
//
//	p.Then(func(value interface{}) (interface{}, error) {
//		return value.(int) * 2, nil
//	}, nil)
//
// A handler rejects its downstream promise by returning a non-nil error, and
// defers it by returning another *Promise or any Thenable. Any value with a
// compatible Then method participates in a chain, regardless of where it
// came from; that duck-typed interop is the point of the Promise/A+ design.
//
// Scheduling is pluggable. The default Scheduler is a single shared Loop
// that drains tasks in FIFO order on one goroutine, which keeps the ordering
// guarantees above deterministic. Do not block on Result inside a handler
// running on the same Loop.
//
// The contract has no cancellation. Race a promise against a timeout promise
// instead, or use ResultWithContext to stop waiting without affecting the
// promise itself.
package promise

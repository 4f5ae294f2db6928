package promise

import "sync"

// Scheduler defers zero-argument tasks. Every handler invocation in this
// package goes through a Scheduler, which is what upholds the always-async
// guarantee: Then never runs a handler before Then itself returns.
//
// A Scheduler must run tasks in submission order for the ordering guarantees
// documented on the combinators to hold.
type Scheduler interface {
	Async(task func())
}

// SchedulerFunc adapts a plain function to the Scheduler interface.
type SchedulerFunc func(task func())

func (f SchedulerFunc) Async(task func()) { f(task) }

// Loop is the default Scheduler: an unbounded FIFO queue drained by a single
// goroutine. One logical thread of control is all the promise core needs, so
// settlement and handler execution never race each other.
type Loop struct {
	mu    sync.Mutex
	queue []func()

	wake chan struct{}
	done chan struct{}

	stopOnce sync.Once
}

// NewLoop starts a new scheduling loop. The loop runs until Stop is called.
func NewLoop() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	go l.run()

	return l
}

// Async enqueues task behind every task submitted before it. Tasks enqueued
// after Stop are never run.
func (l *Loop) Async(task func()) {
	if task == nil {
		return
	}

	l.mu.Lock()
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Stop terminates the loop goroutine. Promises scheduled on a stopped loop
// stay pending forever. Stop is idempotent.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

func (l *Loop) run() {
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()

			if len(batch) == 0 {
				break
			}

			for _, task := range batch {
				select {
				case <-l.done:
					return
				default:
				}

				task()
			}
		}
	}
}

var (
	defaultLoopOnce sync.Once
	defaultLoop     *Loop
)

// DefaultScheduler returns the shared Loop used by New and the static
// constructors. It is started lazily and runs for the lifetime of the
// process.
func DefaultScheduler() Scheduler {
	defaultLoopOnce.Do(func() {
		defaultLoop = NewLoop()
	})

	return defaultLoop
}

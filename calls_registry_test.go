package promise

import (
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// callsRegistry records named call sites from promise handlers and lets a
// test assert how many ran, and in what order, across scheduler turns.
func NewCallsRegistry(expectedCalls uint) *callsRegistry {
	return &callsRegistry{
		expectedCalls: expectedCalls,
	}
}

type callsRegistry struct {
	mutex sync.RWMutex

	registry      []string
	expectedCalls uint
}

func (r *callsRegistry) Register(place string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if 0 == r.expectedCalls {
		panic("trying to register unexpected call: " + place)
	}

	r.registry = append(r.registry, place)
	r.expectedCalls--
}

func (r *callsRegistry) Summarize() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return strings.Join(r.registry, "|")
}

// AssertCompletedBefore waits until every expected call has been registered,
// then compares the order against expectedRegistry.
func (r *callsRegistry) AssertCompletedBefore(t *testing.T, expectedRegistry string, timeLimit time.Duration) {
	timeLimiter := time.After(timeLimit)

	for {
		select {
		case <-timeLimiter:
			require.FailNowf(
				t,
				"Calls registry assertion timeout",
				"There are still %d expected call(s) left. Calls registered: %v.",
				r.expectedCalls,
				r.registry,
			)
			return

		default:
			r.mutex.RLock()
			waitsForCalls := 0 != r.expectedCalls
			r.mutex.RUnlock()

			if waitsForCalls {
				runtime.Gosched()
				continue
			}

			require.Equal(t, expectedRegistry, r.Summarize())
			return
		}
	}
}

// AssertCurrentCallsStackIs compares the calls registered so far, without
// waiting. Used to prove that a handler has not run yet on this turn.
func (r *callsRegistry) AssertCurrentCallsStackIs(t *testing.T, expectedRegistry string) {
	require.Equal(t, expectedRegistry, r.Summarize())
}

package pipeio

import (
	"sync/atomic"
)

// workerState tracks the lifecycle of a worker goroutine.
//
// State machine:
//
//	workerIdle (0) → workerRunning (1)      [goroutine entry]
//	workerRunning (1) → workerTerminated (2) [run loop exit]
//	workerTerminated (2) → (terminal)
//
// Transitions only ever move forward; cancellation is a flag on the worker's
// shared state, not a state here, because a cancelled worker is still
// Running until it observes the flag and exits.
type workerState struct {
	v atomic.Uint32
}

const (
	// workerIdle indicates the worker object exists but its goroutine has
	// not been spawned (workers start lazily).
	workerIdle uint32 = iota
	// workerRunning indicates the worker goroutine has entered its run loop.
	workerRunning
	// workerTerminated indicates the run loop has exited; the done channel
	// is closed at the same point.
	workerTerminated
)

// load returns the current state atomically.
func (s *workerState) load() uint32 {
	return s.v.Load()
}

// store atomically stores a new state.
func (s *workerState) store(state uint32) {
	s.v.Store(state)
}

// terminated reports whether the worker goroutine has exited.
func (s *workerState) terminated() bool {
	return s.load() == workerTerminated
}

// String returns a human-readable representation of the state.
func (s *workerState) String() string {
	switch s.load() {
	case workerIdle:
		return "Idle"
	case workerRunning:
		return "Running"
	case workerTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

package pipeio

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// writer owns the write side of the native handle. A dedicated goroutine
// (run) drains a single-slot buffer through blocking native writes; the
// facade refills the slot only once it is empty, which is the deliberate
// backpressure point between producer and OS.
//
// All fields below mu are protected by it. The run loop holds mu except
// during the blocking native write calls.
type writer struct {
	h      Handle
	log    *logiface.Logger[logiface.Event]
	notify *notifier

	state   workerState
	spawned bool
	done    chan struct{}

	mu sync.Mutex
	// empty releases a producer waiting to refill the slot, or anyone
	// waiting for the drain to complete.
	empty *sync.Cond
	// notEmpty releases the worker once the slot has been refilled.
	notEmpty *sync.Cond
	// started is the startup handshake: broadcast once the run loop holds
	// the mutex for the first time.
	started *sync.Cond

	cancel bool
	err    error // sticky *IOError; a write error is fatal to the worker

	buf []byte // single slot
	n   int    // pending bytes in the slot
}

func newWriter(h Handle, size int, log *logiface.Logger[logiface.Event], notify *notifier) *writer {
	w := &writer{
		h:      h,
		log:    log,
		notify: notify,
		done:   make(chan struct{}),
		buf:    make([]byte, size),
	}
	w.empty = sync.NewCond(&w.mu)
	w.notEmpty = sync.NewCond(&w.mu)
	w.started = sync.NewCond(&w.mu)
	return w
}

// bytesInBuffer returns the pending byte count. Caller must hold mu.
func (w *writer) bytesInBuffer() int {
	return w.n
}

// bufferEmpty reports whether the slot holds no pending bytes. Caller must
// hold mu.
func (w *writer) bufferEmpty() bool {
	return w.n == 0
}

// run is the writer worker loop. It drains the slot with as many native
// writes as partial results require, releasing mu around each call; errors
// are captured with mu held and terminate the worker.
func (w *writer) run() {
	w.mu.Lock()
	w.state.store(workerRunning)
	w.started.Broadcast()
	w.log.Trace().Str("worker", "writer").Log("started")

	for {
		for !w.cancel && w.bufferEmpty() {
			w.empty.Broadcast()
			w.notify.post(notifyBytesWritten, 0)
			w.notEmpty.Wait()
		}

		if w.cancel {
			break
		}

		totalWritten := 0
		var werr error
		for totalWritten < w.n {
			pending := w.buf[totalWritten:w.n]
			w.mu.Unlock()
			numWritten, err := writePipe(w.h, pending)
			w.mu.Lock()
			if err != nil {
				werr = err
				break
			}
			totalWritten += numWritten
		}
		if werr != nil {
			// A write error is fatal to the writer.
			w.err = &IOError{Op: "write", Err: werr}
			w.log.Debug().Str("worker", "writer").Err(werr).Log("write failed")
			break
		}

		w.n = 0
		w.empty.Broadcast()
		w.notify.post(notifyBytesWritten, totalWritten)
	}

	// Leave the slot observably empty so no producer stays parked.
	w.n = 0
	w.empty.Broadcast()
	w.notify.post(notifyBytesWritten, 0)
	w.state.store(workerTerminated)
	w.log.Trace().Str("worker", "writer").Log("terminated")
	w.mu.Unlock()
	close(w.done)
}

// writeData copies up to slot capacity from p into the empty slot, records
// the count, and wakes the worker. Caller must hold mu and have verified
// the slot is empty and no error has occurred. Returns the bytes accepted;
// the facade re-invokes for any remainder.
func (w *writer) writeData(p []byte) int {
	size := len(p)
	if size > len(w.buf) {
		size = len(w.buf)
	}

	copy(w.buf, p[:size])
	w.n = size

	if !w.bufferEmpty() {
		w.notEmpty.Broadcast()
	}
	return size
}

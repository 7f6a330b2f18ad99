package pipeio

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// reader owns the read side of the native handle. A dedicated goroutine
// (run) performs blocking native reads into a fixed-capacity ring buffer;
// the consumer drains the ring through the facade. One byte of the ring is
// permanently reserved so that rptr == wptr always means empty, never full.
//
// All fields below mu are protected by it. The run loop holds mu except
// during the blocking native read itself.
type reader struct {
	h      Handle
	log    *logiface.Logger[logiface.Event]
	notify *notifier

	// eofShortCut latches once a consumer observes the terminal condition
	// with the ring drained. Read unlocked on the Read fast path.
	eofShortCut atomic.Bool

	state   workerState
	spawned bool
	done    chan struct{}

	mu sync.Mutex
	// cancelCond parks the worker after it has reported a terminal
	// condition on an already-drained ring; only Close wakes it.
	cancelCond *sync.Cond
	// notFull releases the worker once the consumer has drained space.
	notFull *sync.Cond
	// notEmpty releases a consumer blocked waiting for data.
	notEmpty *sync.Cond
	// started is the startup handshake: broadcast once the run loop holds
	// the mutex for the first time.
	started *sync.Cond
	// readyReadSent releases the worker once an asynchronous ready-read
	// notification has been observed and acknowledged.
	readyReadSent *sync.Cond
	// consumerDone releases the worker after a direct hand-off, once the
	// blocked consumer has finished draining.
	consumerDone *sync.Cond

	cancel  bool
	eof     bool
	err     error // sticky *IOError
	reading bool  // worker is inside the native read call
	// consumerWaiting counts consumers currently parked on notEmpty; when
	// non-zero the worker notifies via direct hand-off instead of the
	// asynchronous dispatcher path.
	consumerWaiting int

	rptr, wptr int
	buf        []byte // len == usable capacity + 1
}

func newReader(h Handle, size int, log *logiface.Logger[logiface.Event], notify *notifier) *reader {
	r := &reader{
		h:      h,
		log:    log,
		notify: notify,
		done:   make(chan struct{}),
		buf:    make([]byte, size+1),
	}
	r.cancelCond = sync.NewCond(&r.mu)
	r.notFull = sync.NewCond(&r.mu)
	r.notEmpty = sync.NewCond(&r.mu)
	r.started = sync.NewCond(&r.mu)
	r.readyReadSent = sync.NewCond(&r.mu)
	r.consumerDone = sync.NewCond(&r.mu)
	return r
}

// bytesInBuffer returns the in-use byte count. Caller must hold mu.
func (r *reader) bytesInBuffer() int {
	return (r.wptr + len(r.buf) - r.rptr) % len(r.buf)
}

// bufferFull reports whether the ring is at capacity (one byte reserved).
// Caller must hold mu.
func (r *reader) bufferFull() bool {
	return r.bytesInBuffer() == len(r.buf)-1
}

// bufferEmpty reports whether the ring holds no unread bytes. Caller must
// hold mu.
func (r *reader) bufferEmpty() bool {
	return r.bytesInBuffer() == 0
}

// bufferContains scans the in-use region for ch. Caller must hold mu.
func (r *reader) bufferContains(ch byte) bool {
	bib := r.bytesInBuffer()
	for i := 0; i < bib; i++ {
		if r.buf[(r.rptr+i)%len(r.buf)] == ch {
			return true
		}
	}
	return false
}

// run is the reader worker loop. It owns the blocking native reads and
// never touches consumer-visible state without holding mu.
func (r *reader) run() {
	r.mu.Lock()
	r.state.store(workerRunning)
	r.started.Broadcast()
	r.log.Trace().Str("worker", "reader").Log("started")

	for {
		if !r.cancel && (r.eof || r.err != nil) {
			// Keep notifying until the consumer has drained the ring and
			// then once more so it observes eof/error; after that, park
			// until the device closes. Between notifications, wait for
			// drain progress (readData broadcasts notFull) rather than
			// re-notifying immediately.
			wasEmpty := r.bufferEmpty()
			r.notifyReadyRead()
			if !r.cancel {
				if wasEmpty {
					r.cancelCond.Wait()
				} else if !r.bufferEmpty() {
					r.notFull.Wait()
				}
				// else: drained during the notify; loop to announce the
				// terminal condition.
			}
		} else if !r.cancel && !r.bufferFull() && !r.bufferEmpty() {
			r.notifyReadyRead()
		}

		for !r.cancel && r.err == nil && r.bufferFull() {
			r.notifyReadyRead()
			if !r.cancel && r.bufferFull() {
				r.notFull.Wait()
			}
		}

		if r.cancel {
			break
		}

		if r.eof || r.err != nil {
			continue
		}

		if r.rptr == r.wptr {
			// Empty: reset the cursors so the next read gets the longest
			// possible contiguous span.
			r.rptr, r.wptr = 0, 0
		}

		// Longest contiguous writable span that does not wrap past the
		// physical end of the ring.
		numBytes := (r.rptr + len(r.buf) - r.wptr - 1) % len(r.buf)
		if contig := len(r.buf) - r.wptr; numBytes > contig {
			numBytes = contig
		}
		span := r.buf[r.wptr : r.wptr+numBytes]

		r.reading = true
		r.mu.Unlock()
		numRead, eof, err := readPipe(r.h, span)
		r.mu.Lock()
		r.reading = false

		switch {
		case err != nil:
			r.err = &IOError{Op: "read", Err: err}
			r.log.Debug().Str("worker", "reader").Err(err).Log("read failed")
		case eof:
			r.eof = true
			r.log.Trace().Str("worker", "reader").Log("eof")
		default:
			r.wptr = (r.wptr + numRead) % len(r.buf)
		}
	}

	r.state.store(workerTerminated)
	r.log.Trace().Str("worker", "reader").Log("terminated")
	r.mu.Unlock()
	close(r.done)
}

// notifyReadyRead tells the consumer side that data (or a terminal
// condition) is observable, then blocks until that observation is
// acknowledged. Two mutually exclusive paths, both entered with mu held:
//
//   - a consumer is already parked on notEmpty: wake it directly and wait
//     for it to finish draining (consumerDone);
//   - otherwise: post an asynchronous ready-read notification and wait on
//     readyReadSent until the dispatcher (or a consumer entering Read, or
//     Close) acknowledges it.
//
// Waiting for the acknowledgement is what stops the worker from racing
// ahead and overwriting ring state the consumer has not seen yet.
func (r *reader) notifyReadyRead() {
	if r.consumerWaiting > 0 {
		r.notEmpty.Broadcast()
		r.consumerDone.Wait()
		return
	}
	r.notify.post(notifyReadyRead, 0)
	r.readyReadSent.Wait()
}

// readData copies out the longest contiguous readable span, up to len(p)
// bytes, and advances the read cursor. Caller must hold mu and have
// verified the ring is non-empty.
func (r *reader) readData(p []byte) int {
	numRead := len(r.buf) - r.rptr
	if r.rptr < r.wptr {
		numRead = r.wptr - r.rptr
	}
	if numRead > len(p) {
		numRead = len(p)
	}

	copy(p, r.buf[r.rptr:r.rptr+numRead])
	r.rptr = (r.rptr + numRead) % len(r.buf)

	if !r.bufferFull() {
		r.notFull.Broadcast()
	}
	return numRead
}

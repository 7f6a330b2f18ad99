package pipeio

import (
	"sync"
)

// notifyKind discriminates queued notifications.
type notifyKind uint8

const (
	notifyReadyRead notifyKind = iota
	notifyBytesWritten
)

// notification is one queued event for the dispatcher goroutine.
type notification struct {
	n    int
	kind notifyKind
}

// notifier is the asynchronous notification channel between the worker
// goroutines and the consumer-facing callbacks. It replaces a queued
// signal/slot connection: post never blocks (the queue is unbounded), so a
// worker may enqueue while holding its own mutex, and delivery happens on a
// dedicated dispatcher goroutine.
//
// Ready-read notifications carry an acknowledgement: after the callback
// returns, the dispatcher broadcasts the reader's readyReadSent condition,
// releasing the worker that is parked waiting for the notification to be
// observed. Dropping that acknowledgement would let the worker overwrite
// ring state the consumer has not yet seen.
type notifier struct {
	onReadyRead    func()
	onBytesWritten func(int)
	ackReadyRead   func()

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []notification
	closed bool

	done chan struct{}
}

// newNotifier creates a notifier and starts its dispatcher goroutine.
// ackReadyRead must broadcast the reader's readyReadSent condition under the
// reader's mutex; it may be nil for write-only devices.
func newNotifier(onReadyRead func(), onBytesWritten func(int), ackReadyRead func()) *notifier {
	n := &notifier{
		onReadyRead:    onReadyRead,
		onBytesWritten: onBytesWritten,
		ackReadyRead:   ackReadyRead,
		done:           make(chan struct{}),
	}
	n.cond = sync.NewCond(&n.mu)
	go n.run()
	return n
}

// post enqueues a notification. Never blocks; posts after close are dropped.
func (x *notifier) post(kind notifyKind, count int) {
	x.mu.Lock()
	if !x.closed {
		x.queue = append(x.queue, notification{kind: kind, n: count})
		x.cond.Broadcast()
	}
	x.mu.Unlock()
}

// run is the dispatcher loop. It drains the queue before exiting so that a
// close cannot strand a worker waiting for a ready-read acknowledgement.
func (x *notifier) run() {
	defer close(x.done)
	for {
		x.mu.Lock()
		for len(x.queue) == 0 && !x.closed {
			x.cond.Wait()
		}
		if len(x.queue) == 0 {
			x.mu.Unlock()
			return
		}
		ev := x.queue[0]
		x.queue = x.queue[1:]
		x.mu.Unlock()

		switch ev.kind {
		case notifyReadyRead:
			if x.onReadyRead != nil {
				x.onReadyRead()
			}
			if x.ackReadyRead != nil {
				x.ackReadyRead()
			}
		case notifyBytesWritten:
			if x.onBytesWritten != nil {
				x.onBytesWritten(ev.n)
			}
		}
	}
}

// close stops the dispatcher after the queue drains and waits for it to
// exit. Safe to call once, after the worker goroutines have been joined.
func (x *notifier) close() {
	x.mu.Lock()
	x.closed = true
	x.cond.Broadcast()
	x.mu.Unlock()
	<-x.done
}

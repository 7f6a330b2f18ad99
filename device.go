// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package pipeio

import (
	"io"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// workerStartTimeout bounds the has-started handshake when a worker
// goroutine is spawned lazily.
const workerStartTimeout = time.Second

// Device is the consumer-facing pipe endpoint. It implements
// [io.ReadWriteCloser] over a native pipe handle, with the blocking native
// I/O delegated to internal worker goroutines.
//
// A zero Device is not usable; construct with [New] and attach a handle
// with [Device.Open], or use [Pipe] for a connected pair. Device methods
// are intended for a single consumer goroutine; see the package
// documentation for the threading model.
type Device struct {
	// Prevent copying
	_ [0]func()

	log            *logiface.Logger[logiface.Event]
	onReadyRead    func()
	onBytesWritten func(int)
	onAboutToClose func()
	bufSize        int

	mu                 sync.Mutex
	h                  Handle
	mode               OpenMode
	opened             bool
	r                  *reader
	w                  *writer
	notify             *notifier
	triedToStartReader bool
	triedToStartWriter bool
}

// New creates a closed Device. Open attaches it to a native handle.
func New(opts ...Option) (*Device, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Device{
		log:            cfg.logger,
		onReadyRead:    cfg.readyRead,
		onBytesWritten: cfg.bytesWritten,
		onAboutToClose: cfg.aboutToClose,
		bufSize:        cfg.bufferSize,
		h:              InvalidHandle,
	}, nil
}

// Open attaches the device to a native pipe handle. The device takes
// ownership: the handle is closed exactly once, by [Device.Close]. mode
// must include at least one of [ReadOnly] and [WriteOnly]; a worker object
// is created per open direction, but the worker goroutines are only
// spawned on first use.
func (d *Device) Open(h Handle, mode OpenMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.opened {
		return ErrAlreadyOpen
	}
	if mode&ReadWrite == 0 {
		return ErrInvalidMode
	}
	if !isValidHandle(h) {
		return ErrInvalidHandle
	}

	var r *reader
	var w *writer
	notify := newNotifier(d.onReadyRead, d.onBytesWritten, func() {
		if r != nil {
			r.mu.Lock()
			r.readyReadSent.Broadcast()
			r.mu.Unlock()
		}
	})
	if mode&ReadOnly != 0 {
		r = newReader(h, d.bufSize, d.log, notify)
	}
	if mode&WriteOnly != 0 {
		w = newWriter(h, d.bufSize, d.log, notify)
	}

	// commit:
	d.h = h
	d.mode = mode
	d.r = r
	d.w = w
	d.notify = notify
	d.opened = true
	d.triedToStartReader = false
	d.triedToStartWriter = false
	d.log.Debug().Stringer("mode", mode).Log("pipeio: device opened")
	return nil
}

// IsOpen reports whether the device is attached to a handle.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// Mode returns the open mode, or zero when closed.
func (d *Device) Mode() OpenMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Handle returns the native handle, or [InvalidHandle] when closed. The
// device retains ownership.
func (d *Device) Handle() Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.h
}

// startReaderLocked spawns the reader goroutine on first use, waiting out
// the startup handshake. Caller must hold d.mu.
func (d *Device) startReaderLocked() error {
	if d.triedToStartReader {
		return nil
	}
	d.triedToStartReader = true
	r := d.r
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spawned = true
	go r.run()
	if !waitCond(r.started, workerStartTimeout, func() bool { return r.state.load() != workerIdle }) {
		return ErrWorkerStartTimeout
	}
	return nil
}

// startWriterLocked spawns the writer goroutine on first use, waiting out
// the startup handshake. Caller must hold d.mu.
func (d *Device) startWriterLocked() error {
	if d.triedToStartWriter {
		return nil
	}
	d.triedToStartWriter = true
	w := d.w
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.spawned = true
	go w.run()
	if !waitCond(w.started, workerStartTimeout, func() bool { return w.state.load() != workerIdle }) {
		return ErrWorkerStartTimeout
	}
	return nil
}

// acquireReader lazily starts the reader worker and returns it, or an
// error when the device cannot serve reads.
func (d *Device) acquireReader() (*reader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return nil, ErrDeviceClosed
	}
	if d.r == nil {
		return nil, ErrNotReadable
	}
	if err := d.startReaderLocked(); err != nil {
		return nil, err
	}
	return d.r, nil
}

// acquireWriter lazily starts the writer worker and returns it, or an
// error when the device cannot serve writes.
func (d *Device) acquireWriter() (*writer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return nil, ErrDeviceClosed
	}
	if d.w == nil {
		return nil, ErrNotWritable
	}
	if err := d.startWriterLocked(); err != nil {
		return nil, err
	}
	return d.w, nil
}

// Read copies buffered stream bytes into p. It blocks while the ring is
// empty and the stream is not finished; once data is available it returns
// the longest contiguous span without blocking further, which may be
// shorter than len(p). At end of stream it returns (0, [io.EOF]),
// idempotently; after a native read failure it returns the sticky
// [*IOError] on every call once the buffered data has drained.
func (d *Device) Read(p []byte) (int, error) {
	r, err := d.acquireReader()
	if err != nil {
		return 0, err
	}

	if r.eofShortCut.Load() {
		r.mu.Lock()
		err := r.err
		r.mu.Unlock()
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	if len(p) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Acknowledge any pending ready-read handshake; entering Read counts
	// as having observed the notification.
	r.readyReadSent.Broadcast()

	r.consumerWaiting++
	for r.bufferEmpty() && r.err == nil && !r.eof && !r.cancel {
		r.notEmpty.Wait()
	}
	r.consumerWaiting--
	r.consumerDone.Broadcast()

	if r.bufferEmpty() {
		if r.cancel && r.err == nil && !r.eof {
			return 0, ErrDeviceClosed
		}
		// Woken with an empty ring means eof or error; latch it.
		r.eofShortCut.Store(true)
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}

	return r.readData(p), nil
}

// Write queues p for the writer worker and blocks until all of it has been
// accepted, feeding the single-slot buffer one capacity-sized chunk at a
// time; each chunk is accepted only once the previous one has been fully
// flushed to the OS. Returns the sticky [*IOError] after a native write
// failure, with the count of bytes accepted before it.
func (d *Device) Write(p []byte) (int, error) {
	w, err := d.acquireWriter()
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var total int
	for total < len(p) {
		for w.err == nil && !w.cancel && !w.bufferEmpty() {
			w.empty.Wait()
		}
		if w.err != nil {
			return total, w.err
		}
		if w.cancel {
			return total, ErrDeviceClosed
		}
		total += w.writeData(p[total:])
	}
	return total, nil
}

// BytesAvailable returns the buffered-but-unread byte count. The first
// call on a freshly opened device starts the reader worker and reports 0.
// Devices without a read side report 0.
func (d *Device) BytesAvailable() int {
	d.mu.Lock()
	if !d.opened || d.r == nil {
		d.mu.Unlock()
		return 0
	}
	if !d.triedToStartReader {
		if err := d.startReaderLocked(); err != nil {
			d.log.Trace().Err(err).Log("pipeio: reader start failed")
		}
		d.mu.Unlock()
		return 0
	}
	r := d.r
	d.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bytesInBuffer()
}

// BytesToWrite returns the byte count still queued in the writer's slot.
// Devices without a write side report 0.
func (d *Device) BytesToWrite() int {
	w, err := d.acquireWriter()
	if err != nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bytesInBuffer()
}

// CanReadLine reports whether a complete line ('\n'-terminated) is already
// buffered.
func (d *Device) CanReadLine() bool {
	r, err := d.acquireReader()
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bufferContains('\n')
}

// AtEnd reports whether the stream has ended: the source has signalled
// eof (or a sticky read error) and the ring has drained. Devices without a
// read side are always at end.
func (d *Device) AtEnd() bool {
	r, err := d.acquireReader()
	if err != nil {
		return true
	}
	if r.eofShortCut.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return (r.eof || r.err != nil) && r.bufferEmpty()
}

// ReadWouldBlock reports whether a Read right now would block waiting for
// the worker.
func (d *Device) ReadWouldBlock() bool {
	r, err := d.acquireReader()
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bufferEmpty() && !r.eof && r.err == nil
}

// WriteWouldBlock reports whether a Write right now would block waiting
// for the worker to drain the slot.
func (d *Device) WriteWouldBlock() bool {
	w, err := d.acquireWriter()
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.bufferEmpty() && w.err == nil
}

// WaitForReadyRead blocks until data is buffered or the stream has hit
// eof/error, returning true, or until the timeout elapses, returning
// false. Returns immediately when the condition already holds. A
// non-positive timeout waits indefinitely.
func (d *Device) WaitForReadyRead(timeout time.Duration) bool {
	r, err := d.acquireReader()
	if err != nil {
		return err == ErrDeviceClosed || err == ErrNotReadable
	}
	if r.eofShortCut.Load() {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Count as a blocked consumer so the worker takes the direct hand-off.
	r.consumerWaiting++
	ok := waitCond(r.notEmpty, timeout, func() bool {
		return !r.bufferEmpty() || r.eof || r.err != nil || r.cancel
	})
	r.consumerWaiting--
	r.consumerDone.Broadcast()
	return ok
}

// WaitForBytesWritten blocks until the writer's slot is empty or the
// writer has errored, returning true, or until the timeout elapses,
// returning false. Returns immediately when the condition already holds.
// A non-positive timeout waits indefinitely.
func (d *Device) WaitForBytesWritten(timeout time.Duration) bool {
	w, err := d.acquireWriter()
	if err != nil {
		return err == ErrDeviceClosed || err == ErrNotWritable
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return waitCond(w.empty, timeout, func() bool {
		return w.bufferEmpty() || w.err != nil || w.cancel
	})
}

// Close cancels both workers, waits for them to exit, and releases the
// native handle. It is a no-op on a closed device. An in-flight write is
// drained first (bounded only by the OS accepting the bytes); a worker
// blocked inside a native syscall observes cancellation once that syscall
// returns, and Close does not return while a worker goroutine is still
// running.
func (d *Device) Close() error {
	d.mu.Lock()
	if !d.opened {
		d.mu.Unlock()
		return nil
	}
	r, w, notify, h := d.r, d.w, d.notify, d.h
	drainWriter := d.triedToStartWriter
	d.mu.Unlock()

	// Tell clients we're about to close.
	if d.onAboutToClose != nil {
		d.onAboutToClose()
	}
	d.log.Debug().Log("pipeio: device closing")

	if drainWriter && w != nil {
		w.mu.Lock()
		waitCond(w.empty, 0, func() bool {
			return w.bufferEmpty() || w.err != nil || w.cancel
		})
		w.mu.Unlock()
	}

	var joinReader, joinWriter bool
	if r != nil {
		r.mu.Lock()
		r.cancel = true
		joinReader = r.spawned
		d.log.Trace().Bool("inRead", r.reading).Int("buffered", r.bytesInBuffer()).
			Log("pipeio: cancelling reader")
		// Wake every condition the worker could be parked on.
		r.cancelCond.Broadcast()
		r.notFull.Broadcast()
		r.readyReadSent.Broadcast()
		r.consumerDone.Broadcast()
		r.notEmpty.Broadcast()
		r.mu.Unlock()
	}
	if w != nil {
		w.mu.Lock()
		w.cancel = true
		joinWriter = w.spawned
		w.notEmpty.Broadcast()
		w.empty.Broadcast()
		w.mu.Unlock()
	}

	if joinWriter {
		<-w.done
	}
	if r != nil {
		// The reader may have re-entered the notify handshake between the
		// cancellation broadcast and observing the flag.
		r.mu.Lock()
		r.readyReadSent.Broadcast()
		r.consumerDone.Broadcast()
		r.mu.Unlock()
	}
	if joinReader {
		<-r.done
	}

	notify.close()
	err := closeHandle(h)

	d.mu.Lock()
	d.opened = false
	d.mode = 0
	d.h = InvalidHandle
	d.r = nil
	d.w = nil
	d.notify = nil
	d.mu.Unlock()
	d.log.Debug().Log("pipeio: device closed")
	return err
}

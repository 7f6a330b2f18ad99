// Package pipeio exposes an OS pipe (or anonymous-pipe handle) through a
// buffered, non-blocking-capable stream interface, bridging the gap between
// synchronous native pipe I/O and event-driven consumption.
//
// # Architecture
//
// Each open [Device] owns up to two dedicated worker goroutines: a reader
// that performs blocking native reads into a fixed-capacity ring buffer, and
// a writer that drains a single-slot buffer through blocking native writes.
// The consumer-facing methods ([Device.Read], [Device.Write],
// [Device.BytesAvailable], [Device.WaitForReadyRead], and friends) never
// perform native I/O themselves; they exchange data with the workers through
// per-direction mutex-protected state, using condition variables for
// wake-ups in both directions. Workers are started lazily, on the first call
// that needs them, and live until [Device.Close].
//
// Data is delivered strictly in stream order. Backpressure is structural:
// the reader parks once its ring is full, and [Device.Write] blocks while
// the writer's slot is occupied.
//
// # Platform Support
//
// Native I/O is isolated behind a small build-tag-selected shim:
//   - Linux, macOS: blocking read(2)/write(2) via golang.org/x/sys/unix,
//     with transparent EINTR retry
//   - Windows: blocking ReadFile/WriteFile via golang.org/x/sys/windows,
//     with ERROR_BROKEN_PIPE mapped to end-of-stream on the read side
//
// [Pipe] creates a connected pair of devices from a freshly created
// anonymous pipe, for in-process producer/consumer wiring.
//
// # Thread Safety
//
// A Device is intended for a single consumer goroutine, mirroring the
// sequential-device model it implements; the worker goroutines it manages
// internally are fully synchronized against that consumer. Notification
// callbacks ([WithReadyRead], [WithBytesWritten]) are delivered on a
// dedicated dispatcher goroutine owned by the device.
//
// # Errors
//
// End of stream is reported as a conventional (0, [io.EOF]) read once the
// ring drains, and is latched permanently. Native syscall failures surface
// as a sticky [*IOError]: a read failure is returned from every subsequent
// Read after the buffered data drains; a write failure terminates the writer
// worker and fails every subsequent Write.
//
// # Usage
//
//	r, w, err := pipeio.Pipe()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	go func() {
//	    defer w.Close()
//	    w.Write([]byte("hello"))
//	}()
//
//	b, err := io.ReadAll(r)
package pipeio

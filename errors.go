package pipeio

import (
	"errors"
)

// Standard errors.
var (
	// ErrAlreadyOpen is returned by [Device.Open] when the device is open.
	ErrAlreadyOpen = errors.New("pipeio: device is already open")

	// ErrInvalidMode is returned by [Device.Open] when the mode includes
	// neither read nor write capability.
	ErrInvalidMode = errors.New("pipeio: open mode must include read or write")

	// ErrInvalidHandle is returned by [Device.Open] for a handle that is
	// invalid on the current platform.
	ErrInvalidHandle = errors.New("pipeio: invalid pipe handle")

	// ErrDeviceClosed is returned when operations are attempted on a device
	// that is not open, or that was closed mid-operation.
	ErrDeviceClosed = errors.New("pipeio: device is not open")

	// ErrNotReadable is returned by read-side operations on a device opened
	// without ReadOnly.
	ErrNotReadable = errors.New("pipeio: device is not open for reading")

	// ErrNotWritable is returned by write-side operations on a device opened
	// without WriteOnly.
	ErrNotWritable = errors.New("pipeio: device is not open for writing")

	// ErrWorkerStartTimeout is returned when a worker goroutine fails to
	// report startup within the bounded handshake window.
	ErrWorkerStartTimeout = errors.New("pipeio: worker failed to start")
)

// IOError records a failed native pipe operation. It is sticky: once a
// worker captures one, every subsequent consumer call on that direction
// returns the same value (for reads, after the already-buffered data has
// been drained).
type IOError struct {
	// Err is the OS-level error, e.g. a unix.Errno or windows.Errno.
	Err error
	// Op is the failed operation, "read" or "write".
	Op string
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return "pipeio: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying OS error for use with [errors.Is] and
// [errors.As].
func (e *IOError) Unwrap() error {
	return e.Err
}

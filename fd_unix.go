//go:build linux || darwin

package pipeio

import (
	"golang.org/x/sys/unix"
)

// Handle is the platform-native pipe endpoint: a POSIX file descriptor.
type Handle = int

// InvalidHandle is the zero value an unopened device reports.
const InvalidHandle Handle = -1

// isValidHandle reports whether h could name an open descriptor.
func isValidHandle(h Handle) bool {
	return h >= 0
}

// readPipe performs exactly one blocking read(2) into buf, retrying
// transparently on EINTR. A zero-byte read is end of stream.
func readPipe(h Handle, buf []byte) (n int, eof bool, err error) {
	for {
		n, err = unix.Read(h, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, false, err
		}
		return n, n == 0, nil
	}
}

// writePipe performs exactly one blocking write(2) from buf, retrying
// transparently on EINTR. Partial writes are the caller's concern.
func writePipe(h Handle, buf []byte) (int, error) {
	for {
		n, err := unix.Write(h, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// closeHandle closes a pipe endpoint.
func closeHandle(h Handle) error {
	return unix.Close(h)
}

// makePipe creates a connected anonymous pipe. The size hint is unused on
// POSIX systems (the kernel sizes pipe buffers itself).
func makePipe(size int) (r, w Handle, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return InvalidHandle, InvalidHandle, err
	}
	return fds[0], fds[1], nil
}

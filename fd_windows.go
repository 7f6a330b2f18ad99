//go:build windows

package pipeio

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// Handle is the platform-native pipe endpoint: a Win32 HANDLE.
type Handle = windows.Handle

// InvalidHandle is the zero value an unopened device reports.
const InvalidHandle Handle = windows.InvalidHandle

// isValidHandle reports whether h could name an open handle.
func isValidHandle(h Handle) bool {
	return h != 0 && h != windows.InvalidHandle
}

// readPipe performs exactly one blocking ReadFile into buf.
// ERROR_BROKEN_PIPE means the write end is gone: end of stream, not an
// error. A successful zero-byte read is likewise end of stream.
func readPipe(h Handle, buf []byte) (n int, eof bool, err error) {
	var done uint32
	if err := windows.ReadFile(h, buf, &done, nil); err != nil {
		if err == windows.ERROR_BROKEN_PIPE {
			return 0, true, nil
		}
		return 0, false, err
	}
	return int(done), done == 0, nil
}

// writePipe performs exactly one blocking WriteFile from buf. Partial
// writes are the caller's concern.
func writePipe(h Handle, buf []byte) (int, error) {
	var done uint32
	if err := windows.WriteFile(h, buf, &done, nil); err != nil {
		return 0, err
	}
	return int(done), nil
}

// closeHandle closes a pipe endpoint.
func closeHandle(h Handle) error {
	return windows.CloseHandle(h)
}

// makePipe creates a connected anonymous pipe. size is the advisory pipe
// buffer size passed to CreatePipe; the handles are inheritable, matching
// the usual child-process plumbing this device fronts.
func makePipe(size int) (r, w Handle, err error) {
	var sa windows.SecurityAttributes
	sa.Length = uint32(unsafe.Sizeof(sa))
	sa.InheritHandle = 1
	var rh, wh windows.Handle
	if err := windows.CreatePipe(&rh, &wh, &sa, uint32(size)); err != nil {
		return InvalidHandle, InvalidHandle, err
	}
	return rh, wh, nil
}

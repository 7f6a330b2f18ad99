package pipeio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestWaitForBytesWritten_WaitsForDrain writes a single byte and
// immediately waits with no timeout; the wait must block until the writer
// worker drains the slot rather than reporting a false negative.
func TestWaitForBytesWritten_WaitsForDrain(t *testing.T) {
	r, w, err := Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	_, err = w.Write([]byte{0x2a})
	require.NoError(t, err)

	if !w.WaitForBytesWritten(0) {
		t.Fatal("WaitForBytesWritten(0) reported failure")
	}
	require.Zero(t, w.BytesToWrite())
}

func TestWaitForBytesWritten_ImmediateWhenIdle(t *testing.T) {
	r, w, err := Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	start := time.Now()
	require.True(t, w.WaitForBytesWritten(5*time.Second))
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("WaitForBytesWritten blocked %v with an empty slot", elapsed)
	}
}

// TestWrite_BrokenPipe closes the peer's read end to force a native write
// failure; Write must surface the sticky error and the writer goroutine
// must have exited.
func TestWrite_BrokenPipe(t *testing.T) {
	r, w, err := Pipe()
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, r.Close())

	chunk := make([]byte, 4096)
	var writeErr error
	for i := 0; i < 64; i++ {
		if _, writeErr = w.Write(chunk); writeErr != nil {
			break
		}
	}
	require.Error(t, writeErr, "Write never failed after the read end closed")

	var ioErr *IOError
	require.True(t, errors.As(writeErr, &ioErr), "expected *IOError, got %T", writeErr)
	require.Equal(t, "write", ioErr.Op)

	// A write error is fatal to the worker.
	ww := w.w
	select {
	case <-ww.done:
	case <-time.After(5 * time.Second):
		t.Fatal("writer goroutine did not exit after the write error")
	}
	require.True(t, ww.state.terminated())

	// Sticky: subsequent writes fail without blocking.
	_, err = w.Write([]byte("x"))
	require.Error(t, err)
	require.True(t, errors.As(err, &ioErr))
}

// TestWrite_LargerThanSlot verifies that a single Write spanning several
// slot capacities is accepted in full, chunk by chunk.
func TestWrite_LargerThanSlot(t *testing.T) {
	r, w, err := Pipe(WithBufferSize(64))
	require.NoError(t, err)
	defer r.Close()

	payload := make([]byte, 64*5+17)
	for i := range payload {
		payload[i] = byte(i)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, len(payload))
		off := 0
		for off < len(payload) {
			n, err := r.Read(buf[off:])
			if err != nil {
				t.Error("Read failed:", err)
				return
			}
			off += n
		}
		for i := range buf {
			if buf[i] != byte(i) {
				t.Errorf("byte %d: got %#x, want %#x", i, buf[i], byte(i))
				return
			}
		}
	}()

	n, err := w.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)

	<-done
	require.NoError(t, w.Close())
}

func TestBytesToWrite_NoWriter(t *testing.T) {
	r, w, err := Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	if n := r.BytesToWrite(); n != 0 {
		t.Fatalf("read-only device reports %d bytes to write", n)
	}
}

package pipeio

import (
	"testing"
)

// newTestRing returns a reader with the given usable capacity, suitable
// for driving the ring arithmetic directly (no goroutine, no handle).
func newTestRing(size int) *reader {
	return newReader(InvalidHandle, size, nil, nil)
}

// TestRing_FullEmptyDisambiguation fills the ring to exactly its usable
// capacity and verifies full and empty never alias (one byte is reserved
// to break the rptr==wptr ambiguity).
func TestRing_FullEmptyDisambiguation(t *testing.T) {
	const size = 8
	r := newTestRing(size)

	if !r.bufferEmpty() || r.bufferFull() {
		t.Fatal("fresh ring must be empty and not full")
	}

	// Fill to capacity: size usable bytes in a size+1 backing array.
	for i := 0; i < size; i++ {
		r.buf[r.wptr] = byte(i)
		r.wptr = (r.wptr + 1) % len(r.buf)
	}
	if got := r.bytesInBuffer(); got != size {
		t.Fatalf("bytesInBuffer = %d, want %d", got, size)
	}
	if !r.bufferFull() {
		t.Fatal("ring at capacity must report bufferFull")
	}
	if r.bufferEmpty() {
		t.Fatal("ring at capacity must not report bufferEmpty")
	}

	// Draining one byte must clear the full state.
	out := make([]byte, 1)
	if n := r.readData(out); n != 1 || out[0] != 0 {
		t.Fatalf("readData = %d (%#x), want 1 byte 0x00", n, out[0])
	}
	if r.bufferFull() {
		t.Fatal("ring must not be full after draining a byte")
	}

	// Drain the rest; empty again, never full.
	rest := make([]byte, size)
	total := 0
	for !r.bufferEmpty() {
		total += r.readData(rest[total:])
	}
	if total != size-1 {
		t.Fatalf("drained %d bytes, want %d", total, size-1)
	}
	if r.bufferFull() {
		t.Fatal("empty ring reports full")
	}
}

// TestRing_WrapAround verifies that reads return only the contiguous span
// up to the physical end of the ring, and that a second read picks up the
// wrapped remainder in order.
func TestRing_WrapAround(t *testing.T) {
	const size = 8
	r := newTestRing(size)

	// Place 4 bytes so that they straddle the physical end: two at the
	// tail of the array, two wrapped to the front.
	r.rptr = len(r.buf) - 2
	r.wptr = 2
	copy(r.buf[r.rptr:], []byte{1, 2})
	copy(r.buf[:2], []byte{3, 4})

	if got := r.bytesInBuffer(); got != 4 {
		t.Fatalf("bytesInBuffer = %d, want 4", got)
	}

	out := make([]byte, 16)
	if n := r.readData(out); n != 2 || out[0] != 1 || out[1] != 2 {
		t.Fatalf("first readData = %d (% x), want the 2-byte tail span", n, out[:n])
	}
	if n := r.readData(out); n != 2 || out[0] != 3 || out[1] != 4 {
		t.Fatalf("second readData = %d (% x), want the wrapped span", n, out[:n])
	}
	if !r.bufferEmpty() {
		t.Fatal("ring should be empty after draining both spans")
	}
}

func TestRing_BufferContains(t *testing.T) {
	r := newTestRing(8)

	r.rptr = len(r.buf) - 1
	r.wptr = 2
	r.buf[r.rptr] = 'a'
	r.buf[0] = '\n'
	r.buf[1] = 'b'

	if !r.bufferContains('\n') {
		t.Fatal("newline in the wrapped region not found")
	}
	if r.bufferContains('z') {
		t.Fatal("found a byte that is not in the ring")
	}

	// Bytes outside the in-use region are invisible.
	r.rptr = r.wptr
	if r.bufferContains('\n') {
		t.Fatal("empty ring reports contents")
	}
}

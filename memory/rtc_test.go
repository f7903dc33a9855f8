package memory

import (
	"testing"
	"time"
)

func TestRTCWriteThenLatchPreservesWrittenValue(t *testing.T) {
	clock := time.Unix(1000, 0)
	r := newRTC()
	r.now = func() time.Time { return clock }
	r.base = clock

	r.selectReg = 0x08
	r.writeSelected(42) // write seconds = 42

	if got := r.readSelected(); got != 42 {
		t.Fatalf("seconds immediately after write = %d; want 42", got)
	}

	// Advancing the wall clock and re-latching must build on the written
	// value, not discard it back to whatever elapsed() derives from the
	// pre-write base.
	clock = clock.Add(3 * time.Second)
	r.latch()
	if got := r.readSelected(); got != 45 {
		t.Fatalf("seconds after 3s post-write = %d; want 45", got)
	}
}

func TestRTCWriteWhileHaltedRebasesFromHaltInstant(t *testing.T) {
	clock := time.Unix(2000, 0)
	r := newRTC()
	r.now = func() time.Time { return clock }
	r.base = clock
	r.halted = true
	r.haltedAt = clock

	r.selectReg = 0x09
	r.writeSelected(10) // write minutes = 10

	clock = clock.Add(time.Hour) // halted: wall-clock movement must not leak in
	r.latch()
	if got := r.readSelected(); got != 10 {
		t.Fatalf("minutes after halted write + wall-clock advance = %d; want 10", got)
	}
}

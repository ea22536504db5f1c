package audio

import (
	"testing"
	"time"
)

func TestPreBufferNotReadyInitially(t *testing.T) {
	pre := NewPreBuffer(1000)

	if pre.Wait(0) {
		t.Error("Wait(0) on fresh tracker = true, want false")
	}
}

func TestPreBufferThresholdCrossing(t *testing.T) {
	pre := NewPreBuffer(1000)

	pre.Add(999)
	if pre.Wait(0) {
		t.Error("Wait(0) below threshold = true, want false")
	}

	pre.Add(1)
	if !pre.Wait(time.Second) {
		t.Error("Wait() after crossing threshold = false, want true")
	}
}

func TestPreBufferLatchesUntilReset(t *testing.T) {
	pre := NewPreBuffer(10)

	pre.Add(10)
	if !pre.Wait(0) {
		t.Fatal("tracker should be ready at threshold")
	}

	// Further adds must not disturb the latched signal.
	pre.Add(5)
	pre.Add(5)
	if !pre.Wait(0) {
		t.Error("ready signal reverted without Reset")
	}

	pre.Reset()
	if pre.Wait(0) {
		t.Error("Wait(0) after Reset = true, want false")
	}
	if got := pre.Total(); got != 0 {
		t.Errorf("Total() after Reset = %d, want 0", got)
	}

	// The tracker must be reusable for the next message.
	pre.Add(10)
	if !pre.Wait(time.Second) {
		t.Error("tracker did not become ready again after Reset")
	}
}

func TestPreBufferForceReady(t *testing.T) {
	pre := NewPreBuffer(1000)

	pre.ForceReady()
	if !pre.Wait(0) {
		t.Error("Wait(0) after ForceReady = false, want true")
	}

	// ForceReady on an already-ready tracker is a no-op, not a panic.
	pre.ForceReady()
	if !pre.Wait(0) {
		t.Error("ready signal lost after repeated ForceReady")
	}
}

func TestPreBufferWaitTimesOut(t *testing.T) {
	pre := NewPreBuffer(1000)

	start := time.Now()
	ready := pre.Wait(20 * time.Millisecond)
	elapsed := time.Since(start)

	if ready {
		t.Error("Wait() with no data = true, want false")
	}
	if elapsed < 20*time.Millisecond {
		t.Errorf("Wait() returned after %v, want at least 20ms", elapsed)
	}
}

func TestPreBufferWaitUnblocksOnAdd(t *testing.T) {
	pre := NewPreBuffer(100)

	go func() {
		time.Sleep(20 * time.Millisecond)
		pre.Add(100)
	}()

	if !pre.Wait(time.Second) {
		t.Error("Wait() did not observe a concurrent threshold crossing")
	}
}

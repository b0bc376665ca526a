package hotkey

import (
	"testing"
	"time"
)

func waitStart(t *testing.T, hy *Hybrid) {
	t.Helper()
	select {
	case <-hy.Start():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for start")
	}
}

func waitStop(t *testing.T, hy *Hybrid) {
	t.Helper()
	select {
	case <-hy.StopChan():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stop")
	}
}

func TestHybridLongPressStopsOnRelease(t *testing.T) {
	fk := NewFake()
	threshold := 50 * time.Millisecond
	hy := NewHybrid(fk, threshold)

	fk.SimKeydown()
	waitStart(t, hy)

	time.Sleep(threshold + 20*time.Millisecond)
	if hy.IsToggle() {
		t.Error("long press should be PTT, not toggle")
	}
	fk.SimKeyup()
	waitStop(t, hy)
}

func TestHybridShortTapToggles(t *testing.T) {
	fk := NewFake()
	hy := NewHybrid(fk, 200*time.Millisecond)

	fk.SimKeydown()
	waitStart(t, hy)
	fk.SimKeyup()
	time.Sleep(10 * time.Millisecond)
	if !hy.IsToggle() {
		t.Error("short tap should enter toggle mode")
	}

	// Releasing a tap must not end the recording.
	select {
	case <-hy.StopChan():
		t.Fatal("recording stopped after a short tap")
	case <-time.After(50 * time.Millisecond):
	}

	fk.SimKeydown()
	fk.SimKeyup()
	waitStop(t, hy)
}

func TestHybridAlternatingCycles(t *testing.T) {
	fk := NewFake()
	threshold := 50 * time.Millisecond
	hy := NewHybrid(fk, threshold)

	// Hold.
	fk.SimKeydown()
	waitStart(t, hy)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitStop(t, hy)

	// Tap, then tap again to stop.
	fk.SimKeydown()
	waitStart(t, hy)
	fk.SimKeyup()
	time.Sleep(20 * time.Millisecond)
	fk.SimKeydown()
	fk.SimKeyup()
	waitStop(t, hy)

	// Hold again.
	fk.SimKeydown()
	waitStart(t, hy)
	time.Sleep(threshold + 20*time.Millisecond)
	fk.SimKeyup()
	waitStop(t, hy)
}

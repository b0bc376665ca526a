package audio

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"
)

func TestLevelSilence(t *testing.T) {
	if got := Level(make([]byte, 640)); got != 0 {
		t.Errorf("Level(silence) = %v, want 0", got)
	}
	if got := Level(nil); got != 0 {
		t.Errorf("Level(nil) = %v, want 0", got)
	}
}

func TestLevelFullScale(t *testing.T) {
	pcm := make([]byte, 640)
	for i := 0; i < len(pcm); i += 2 {
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(32767)))
	}
	got := Level(pcm)
	if got < 0.99 || got > 1.0 {
		t.Errorf("Level(full scale) = %v, want ~1.0", got)
	}
}

func TestDurationMs(t *testing.T) {
	cases := []struct {
		bytes int
		want  int64
	}{
		{0, 0},
		{SampleRate * 2, 1000},
		{SampleRate, 500},
		{SampleRate * 2 * 3 / 10, 300},
	}
	for _, c := range cases {
		if got := DurationMs(make([]byte, c.bytes)); got != c.want {
			t.Errorf("DurationMs(%d bytes) = %d, want %d", c.bytes, got, c.want)
		}
	}
}

func TestIsBluetooth(t *testing.T) {
	for _, name := range []string{"AirPods Pro", "Sony WH-1000XM5", "Jabra Elite", "Headset (Bluetooth)"} {
		if !IsBluetooth(name) {
			t.Errorf("IsBluetooth(%q) = false", name)
		}
	}
	for _, name := range []string{"Built-in Microphone", "USB Audio Device", "default"} {
		if IsBluetooth(name) {
			t.Errorf("IsBluetooth(%q) = true", name)
		}
	}
}

func TestResolveDeviceUnknownFallsBack(t *testing.T) {
	ctx := NewFakeContext(nil, false)
	if dev := ResolveDevice(ctx, ""); dev != nil {
		t.Errorf("empty name should resolve to default, got %+v", dev)
	}
	if dev := ResolveDevice(ctx, "vanished device"); dev != nil {
		t.Errorf("unknown name should resolve to default, got %+v", dev)
	}
}

func TestFakeCaptureReplaysBuffer(t *testing.T) {
	pcm := make([]byte, SampleRate*2) // 1 second
	for i := range pcm {
		pcm[i] = byte(i)
	}
	ctx := NewFakeContext(pcm, false)
	capture, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: SampleRate, Channels: Channels})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	defer capture.Close()

	var mu sync.Mutex
	var got []byte
	capture.SetCallback(func(data []byte, frameCount uint32) {
		mu.Lock()
		got = append(got, data...)
		mu.Unlock()
	})

	if err := capture.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	capture.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) < len(pcm) {
		t.Fatalf("replayed %d bytes, want at least %d", len(got), len(pcm))
	}
	for i := range pcm {
		if got[i] != pcm[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], pcm[i])
		}
	}
}

func TestFakeCaptureFeedsSilenceAfterBuffer(t *testing.T) {
	ctx := NewFakeContext(make([]byte, 320), false)
	capture, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: SampleRate, Channels: Channels})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	defer capture.Close()

	var mu sync.Mutex
	var total int
	capture.SetCallback(func(data []byte, frameCount uint32) {
		mu.Lock()
		total += len(data)
		mu.Unlock()
	})

	if err := capture.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	capture.Stop()

	mu.Lock()
	defer mu.Unlock()
	if total <= 320 {
		t.Fatalf("total = %d, expected trailing silence beyond the buffer", total)
	}
}

func TestFakeCaptureStopIdempotent(t *testing.T) {
	ctx := NewFakeContext(nil, false)
	capture, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: SampleRate, Channels: Channels})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	if err := capture.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	capture.Stop()
	capture.Stop()
	capture.Close()
}

package batch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audioshift/encoder"
	"audioshift/events"
	"audioshift/settings"
	"audioshift/transcriber"
)

func newTestQueue(t *testing.T, eng *transcriber.Fake) (*Queue, *events.Bus) {
	t.Helper()
	st, err := settings.Open(t.TempDir())
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	bus := events.NewBus()
	return NewQueue(eng, bus, st, t.TempDir()), bus
}

func TestIsMediaFile(t *testing.T) {
	for _, path := range []string{"a.wav", "b.MP3", "/x/y/c.m4a", "d.mkv", "e.webm"} {
		if !IsMediaFile(path) {
			t.Errorf("IsMediaFile(%q) = false", path)
		}
	}
	for _, path := range []string{"a.txt", "b.pdf", "noext", "c.wav.bak"} {
		if IsMediaFile(path) {
			t.Errorf("IsMediaFile(%q) = true", path)
		}
	}
}

func TestUnsupportedExtension(t *testing.T) {
	q, _ := newTestQueue(t, transcriber.NewFake("x", nil))
	_, err := q.Transcribe(context.Background(), "notes.txt")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func TestMissingFile(t *testing.T) {
	q, bus := newTestQueue(t, transcriber.NewFake("x", nil))
	ch, cancel := bus.Subscribe(16)
	defer cancel()

	_, err := q.Transcribe(context.Background(), filepath.Join(t.TempDir(), "gone.wav"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	select {
	case ev := <-ch:
		fp, ok := ev.(events.FileProgress)
		if !ok || fp.Status != "error" {
			t.Fatalf("event = %+v, want error progress", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no progress event published")
	}
}

func TestWriteTranscriptNeverOverwrites(t *testing.T) {
	q, _ := newTestQueue(t, transcriber.NewFake("x", nil))

	first, err := q.writeTranscript("/media/talk.mp3", "one")
	if err != nil {
		t.Fatalf("writeTranscript: %v", err)
	}
	second, err := q.writeTranscript("/media/talk.mp3", "two")
	if err != nil {
		t.Fatalf("writeTranscript: %v", err)
	}
	if first == second {
		t.Fatalf("second transcript overwrote %s", first)
	}
	if filepath.Base(second) != "talk (2).txt" {
		t.Fatalf("second path = %s", second)
	}
	data, err := os.ReadFile(first)
	if err != nil || strings.TrimSpace(string(data)) != "one" {
		t.Fatalf("first transcript = %q, %v", data, err)
	}
}

func TestSpeedEstimateBlends(t *testing.T) {
	q, _ := newTestQueue(t, transcriber.NewFake("x", nil))

	// No history: estimate assumes real time.
	if got := q.estimateSecs(60); got != 60 {
		t.Fatalf("cold estimate = %v, want 60", got)
	}

	// 60s of audio in 10s of wall time: 6x real time.
	q.observeSpeed(60, 10*time.Second)
	if got := q.estimateSecs(120); got != 20 {
		t.Fatalf("estimate = %v, want 20", got)
	}

	// A slower job pulls the ratio down, weighted toward the new sample.
	q.observeSpeed(60, 30*time.Second)
	got := q.estimateSecs(60)
	if got <= 10 || got >= 30 {
		t.Fatalf("blended estimate = %v, want between 10 and 30", got)
	}
}

func TestTranscribeWAVEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	wavPath := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(wavPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := encoder.WriteWAV(f, make([]byte, 16000*2)); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	f.Close()

	q, bus := newTestQueue(t, transcriber.NewFake("transcript of clip", nil))
	ch, cancel := bus.Subscribe(64)
	defer cancel()

	outPath, err := q.Transcribe(context.Background(), wavPath)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	data, err := os.ReadFile(outPath)
	if err != nil || strings.TrimSpace(string(data)) != "transcript of clip" {
		t.Fatalf("transcript = %q, %v", data, err)
	}

	var sawConverting, sawCompleted bool
	deadline := time.After(time.Second)
loop:
	for {
		select {
		case ev := <-ch:
			if fp, ok := ev.(events.FileProgress); ok {
				switch fp.Status {
				case "converting":
					sawConverting = true
				case "completed":
					sawCompleted = true
					if fp.Progress != 100 || fp.ResultText != "transcript of clip" {
						t.Fatalf("completed = %+v", fp)
					}
					break loop
				}
			}
		case <-deadline:
			break loop
		}
	}
	if !sawConverting || !sawCompleted {
		t.Fatalf("progress sequence incomplete: converting=%v completed=%v", sawConverting, sawCompleted)
	}
}

func TestCancelDuringTranscriptionWritesNothing(t *testing.T) {
	prev := decode
	decode = func(ctx context.Context, path string) ([]byte, error) {
		return make([]byte, 16000*2), nil
	}
	defer func() { decode = prev }()

	eng := transcriber.NewFake("late", nil)
	eng.Delay = 5 * time.Second

	st, err := settings.Open(t.TempDir())
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	outDir := t.TempDir()
	q := NewQueue(eng, events.NewBus(), st, outDir)

	src := filepath.Join(t.TempDir(), "talk.wav")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	if _, err := q.Transcribe(ctx, src); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("transcript written despite cancel: %v", entries)
	}
}

func TestCancelledContext(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	wavPath := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(wavPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := encoder.WriteWAV(f, make([]byte, 16000*2)); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	f.Close()

	eng := transcriber.NewFake("late", nil)
	eng.Delay = 5 * time.Second
	q, _ := newTestQueue(t, eng)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if _, err := q.Transcribe(ctx, wavPath); err == nil {
		t.Fatal("expected cancellation error")
	}
}

// Package events is the notification channel between the recording
// backend and its display surfaces. The session controller and file
// queue are the only publishers; the overlay, tray-like surfaces and
// tests subscribe. Subscribers never mutate backend state.
package events

import "sync"

// Phase is the session controller's externally visible state.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseRecording    Phase = "recording"
	PhaseTranscribing Phase = "transcribing"
	PhaseError        Phase = "error"
)

// PhaseChanged is emitted on every session state transition.
type PhaseChanged struct {
	Phase  Phase
	Reason string // non-empty only for PhaseError
}

// Amplitude carries one normalized [0,1] loudness sample per capture chunk.
type Amplitude struct {
	Level float64
}

// RecordingTick is emitted at a fixed cadence while recording.
type RecordingTick struct {
	Seconds float64
}

// Completed is emitted when a transcription finishes, successful or not
// worth keeping. Text is empty when no speech was recognized.
type Completed struct {
	Text         string
	NoSpeech     bool
	DurationMs   int64
	ProcessingMs int64
}

// SessionError reports a failure that aborted a user-initiated action.
// Hint, when set, names a remediation ("grant microphone access").
type SessionError struct {
	Message string
	Hint    string
}

// HistoryUpdated signals that the history collection changed.
type HistoryUpdated struct{}

// FileProgress mirrors the state of a file transcription job.
type FileProgress struct {
	Status       string // "converting" | "transcribing" | "completed" | "error" | "idle"
	FileName     string
	SourcePath   string
	Progress     int // 0-100
	ElapsedSecs  int64
	EstimateSecs int64
	DurationSecs float64
	ResultText   string
	OutputPath   string
	Err          string
}

// ModelDownload reports download progress for a model file.
type ModelDownload struct {
	ModelID    string
	File       string
	Downloaded int64
	Total      int64
	Progress   int // 0-100 across all files of the model
}

// Bus is a broadcast channel. Publish never blocks: a subscriber that
// falls behind loses events (amplitude samples are disposable, and
// every state transition is followed by another that supersedes it).
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan any
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan any)}
}

// Subscribe registers a listener with the given channel buffer.
// The returned cancel func removes the subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan any, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan any, buffer)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Bus) Publish(ev any) {
	b.mu.Lock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
}

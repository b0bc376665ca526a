// Package transcriber is the boundary to the speech models: a fixed
// catalog of downloadable model definitions across two engine families,
// and an Engine contract that turns a finished audio buffer into text.
package transcriber

import (
	"context"
	"errors"
)

var (
	// ErrModelNotReady means the selected model is not downloaded (or a
	// model file failed verification).
	ErrModelNotReady = errors.New("model not downloaded")
	// ErrInference wraps a failure inside the model runner.
	ErrInference = errors.New("transcription failed")
)

// Config selects the model and engine-specific options for one call.
// Language and Translate only apply to whisper models; parakeet
// ignores them.
type Config struct {
	ModelID   string
	Language  string // "" or "auto" = auto-detect
	Translate bool
}

// Engine transcribes a finished s16le mono 16 kHz buffer. One model is
// loaded in memory at a time, so implementations serialize concurrent
// calls rather than rejecting them.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, pcm []byte, cfg Config) (string, error)
}

package transcriber

import (
	"context"
	"sync/atomic"
	"time"
)

// Fake is a deterministic Engine for tests: fixed text or error, an
// optional delay to model slow inference, and a call counter.
type Fake struct {
	Text  string
	Err   error
	Delay time.Duration

	calls atomic.Int32
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Calls() int { return int(f.calls.Load()) }

func (f *Fake) Transcribe(ctx context.Context, _ []byte, _ Config) (string, error) {
	f.calls.Add(1)
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

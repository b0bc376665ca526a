// Package session owns the recording lifecycle: a single controller
// moves through idle, recording and transcribing, and is the only
// component allowed to start or stop microphone capture for dictation.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"audioshift/audio"
	"audioshift/deliver"
	"audioshift/events"
	"audioshift/frontmost"
	"audioshift/history"
	"audioshift/settings"
	"audioshift/transcriber"
)

// ErrBusy is returned by Start while a session is already active.
var ErrBusy = errors.New("a recording session is already active")

// defaultMinDuration filters out accidental hotkey taps. Buffers
// shorter than this are discarded without invoking the model.
const defaultMinDuration = 300 * time.Millisecond

// Options wires a Controller. Frontmost and MinDuration are optional.
type Options struct {
	Audio       audio.Context
	Engine      transcriber.Engine
	Deliverer   *deliver.Deliverer
	History     *history.Store
	Settings    *settings.Store
	Bus         *events.Bus
	Frontmost   func() frontmost.AppContext
	MinDuration time.Duration
}

// Controller is the session state machine. All transitions happen under
// one mutex; the audio callback only touches the capture buffer so a
// backend that drains its callback during Stop cannot deadlock.
type Controller struct {
	audio       audio.Context
	engine      transcriber.Engine
	deliverer   *deliver.Deliverer
	history     *history.Store
	settings    *settings.Store
	bus         *events.Bus
	frontmost   func() frontmost.AppContext
	minDuration time.Duration
	monitor     *Monitor

	mu        sync.Mutex
	phase     events.Phase
	gen       uint64
	capture   audio.CaptureDevice
	startedAt time.Time
	appCtx    frontmost.AppContext
	tickStop  chan struct{}

	bufMu sync.Mutex
	buf   []byte
}

func NewController(opts Options) *Controller {
	if opts.Frontmost == nil {
		opts.Frontmost = frontmost.Capture
	}
	if opts.MinDuration <= 0 {
		opts.MinDuration = defaultMinDuration
	}
	return &Controller{
		audio:       opts.Audio,
		engine:      opts.Engine,
		deliverer:   opts.Deliverer,
		history:     opts.History,
		settings:    opts.Settings,
		bus:         opts.Bus,
		frontmost:   opts.Frontmost,
		minDuration: opts.MinDuration,
		phase:       events.PhaseIdle,
	}
}

// SetMonitor attaches the standalone level monitor so Start can claim
// the microphone from it.
func (c *Controller) SetMonitor(m *Monitor) { c.monitor = m }

// Phase returns the current session phase.
func (c *Controller) Phase() events.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Start begins a recording session. It fails with ErrBusy while a
// session is recording or transcribing; a stuck model must not let a
// second recording trample the first one's buffer.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != events.PhaseIdle {
		return ErrBusy
	}
	if c.monitor != nil {
		c.monitor.Stop()
	}

	appCtx := c.frontmost()

	device := audio.ResolveDevice(c.audio, c.settings.GetString(settings.KeyInputDevice, ""))
	capture, err := c.audio.NewCapture(device, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		c.reportError(err)
		c.bus.Publish(events.PhaseChanged{Phase: events.PhaseIdle})
		return err
	}

	c.bufMu.Lock()
	c.buf = c.buf[:0]
	c.bufMu.Unlock()

	capture.SetCallback(func(data []byte, frameCount uint32) {
		c.bufMu.Lock()
		c.buf = append(c.buf, data...)
		c.bufMu.Unlock()
		c.bus.Publish(events.Amplitude{Level: audio.Level(data)})
	})

	if err := capture.Start(); err != nil {
		capture.Close()
		c.reportError(err)
		c.bus.Publish(events.PhaseChanged{Phase: events.PhaseIdle})
		return err
	}

	c.capture = capture
	c.startedAt = time.Now()
	c.appCtx = appCtx
	c.phase = events.PhaseRecording
	c.bus.Publish(events.PhaseChanged{Phase: events.PhaseRecording})

	c.tickStop = make(chan struct{})
	go c.tickLoop(c.startedAt, c.tickStop)

	return nil
}

func (c *Controller) tickLoop(start time.Time, stop chan struct{}) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-t.C:
			c.bus.Publish(events.RecordingTick{Seconds: now.Sub(start).Seconds()})
		}
	}
}

// Stop ends recording and hands the buffer to the model. Stopping while
// idle or transcribing is a no-op. Buffers shorter than the minimum
// duration are discarded without invoking the model.
func (c *Controller) Stop(autoPaste bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != events.PhaseRecording {
		return nil
	}
	pcm := c.releaseCapture()

	if audio.DurationMs(pcm) < c.minDuration.Milliseconds() {
		c.phase = events.PhaseIdle
		c.bus.Publish(events.PhaseChanged{Phase: events.PhaseIdle})
		return nil
	}

	c.phase = events.PhaseTranscribing
	c.bus.Publish(events.PhaseChanged{Phase: events.PhaseTranscribing})

	gen := c.gen
	appCtx := c.appCtx
	go c.finish(gen, pcm, autoPaste, appCtx)
	return nil
}

// Cancel abandons whatever is in flight. Cancelling while idle is a
// no-op. A cancelled transcription keeps running in the background, but
// bumping the generation guarantees its result is thrown away.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case events.PhaseRecording:
		c.releaseCapture()
		c.gen++
	case events.PhaseTranscribing:
		c.gen++
	default:
		return
	}
	c.phase = events.PhaseIdle
	c.bus.Publish(events.PhaseChanged{Phase: events.PhaseIdle})
}

// releaseCapture stops the microphone and returns the captured buffer.
// Caller holds c.mu.
func (c *Controller) releaseCapture() []byte {
	if c.tickStop != nil {
		close(c.tickStop)
		c.tickStop = nil
	}
	if c.capture != nil {
		c.capture.ClearCallback()
		c.capture.Stop()
		c.capture.Close()
		c.capture = nil
	}
	c.bufMu.Lock()
	pcm := c.buf
	c.buf = nil
	c.bufMu.Unlock()
	return pcm
}

// finish runs the model off the lock, then re-checks the generation
// before delivering so a result arriving after Cancel is discarded.
func (c *Controller) finish(gen uint64, pcm []byte, autoPaste bool, appCtx frontmost.AppContext) {
	cfg := transcriber.Config{
		ModelID:   c.settings.GetString(settings.KeyLiveModel, transcriber.DefaultModelID),
		Language:  c.settings.GetString(settings.KeyLanguage, "auto"),
		Translate: c.settings.GetBool(settings.KeyTranslate, false),
	}

	started := time.Now()
	text, err := c.engine.Transcribe(context.Background(), pcm, cfg)
	processingMs := time.Since(started).Milliseconds()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}

	if err != nil {
		c.reportError(err)
		c.phase = events.PhaseIdle
		c.bus.Publish(events.PhaseChanged{Phase: events.PhaseIdle})
		return
	}

	text = strings.TrimSpace(text)
	durationMs := audio.DurationMs(pcm)

	if text == "" {
		c.phase = events.PhaseIdle
		c.bus.Publish(events.Completed{NoSpeech: true, DurationMs: durationMs, ProcessingMs: processingMs})
		c.bus.Publish(events.PhaseChanged{Phase: events.PhaseIdle})
		return
	}

	if err := c.deliverer.Deliver(text, autoPaste); err != nil {
		c.bus.Publish(events.SessionError{Message: err.Error()})
	}

	if c.settings.GetBool(settings.KeySaveHistory, true) {
		_, err := c.history.Append(history.Entry{
			Text:         text,
			Timestamp:    time.Now().UnixMilli(),
			AppName:      appCtx.AppName,
			WindowTitle:  appCtx.WindowTitle,
			DurationMs:   durationMs,
			ProcessingMs: processingMs,
			ModelID:      cfg.ModelID,
			Language:     cfg.Language,
			Translate:    cfg.Translate,
		}, pcm)
		if err != nil {
			c.bus.Publish(events.SessionError{Message: "saving history: " + err.Error()})
		} else {
			c.bus.Publish(events.HistoryUpdated{})
		}
	}

	c.phase = events.PhaseIdle
	c.bus.Publish(events.Completed{Text: text, DurationMs: durationMs, ProcessingMs: processingMs})
	c.bus.Publish(events.PhaseChanged{Phase: events.PhaseIdle})
}

// reportError publishes an error transition with a remediation hint
// when the failure kind has one. Caller holds c.mu.
func (c *Controller) reportError(err error) {
	hint := ""
	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		hint = "grant microphone access in system settings"
	case errors.Is(err, audio.ErrDeviceNotFound):
		hint = "check the selected input device"
	case errors.Is(err, audio.ErrDeviceBusy):
		hint = "close the application holding the microphone"
	case errors.Is(err, transcriber.ErrModelNotReady):
		hint = "download the model before recording"
	}
	c.bus.Publish(events.SessionError{Message: err.Error(), Hint: hint})
	c.bus.Publish(events.PhaseChanged{Phase: events.PhaseError, Reason: err.Error()})
}

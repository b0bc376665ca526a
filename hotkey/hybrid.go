package hotkey

import (
	"sync/atomic"
	"time"
)

type Mode string

const (
	// ModePTT: the key was held; recording stops on release.
	ModePTT Mode = "ptt"
	// ModeToggle: a short tap; recording stops on the next tap.
	ModeToggle Mode = "toggle"
)

// StartEvent signals that a recording should begin.
type StartEvent struct {
	Mode Mode
}

// Hybrid layers tap-to-toggle and hold-to-talk on one key combination.
// A press always starts recording immediately; whether the release or
// the next tap ends it depends on how long the key was held.
type Hybrid struct {
	startCh chan StartEvent
	stopCh  chan struct{}
	toggled atomic.Bool
}

// NewHybrid wraps hk. Presses shorter than longPress become toggles.
func NewHybrid(hk Hotkey, longPress time.Duration) *Hybrid {
	h := &Hybrid{
		startCh: make(chan StartEvent, 1),
		stopCh:  make(chan struct{}, 1),
	}
	go h.run(hk, longPress)
	return h
}

// Start signals when to begin recording.
func (h *Hybrid) Start() <-chan StartEvent { return h.startCh }

// StopChan signals when to stop, in both modes.
func (h *Hybrid) StopChan() <-chan struct{} { return h.stopCh }

// IsToggle reports whether the current recording is in toggle mode.
func (h *Hybrid) IsToggle() bool { return h.toggled.Load() }

func (h *Hybrid) run(hk Hotkey, longPress time.Duration) {
	for {
		// Recording starts on the press. The hold timer decides the mode:
		// a release before it fires means toggle, after it means PTT.
		<-hk.Keydown()
		h.toggled.Store(false)
		h.startCh <- StartEvent{Mode: ModeToggle}

		timer := time.NewTimer(longPress)
		select {
		case <-timer.C:
			<-hk.Keyup()
			h.emitStop()
			continue
		case <-hk.Keyup():
			if !timer.Stop() {
				<-timer.C
			}
			h.toggled.Store(true)
		}

		// Toggled on: the next full tap ends the recording.
		<-hk.Keydown()
		<-hk.Keyup()
		h.toggled.Store(false)
		h.emitStop()
	}
}

func (h *Hybrid) emitStop() {
	select {
	case h.stopCh <- struct{}{}:
	default:
	}
}

// Package deliver places transcribed text into the user's hands: the
// clipboard always, and optionally a simulated paste keystroke into the
// previously focused application.
package deliver

import (
	"errors"
	"fmt"

	"audioshift/clipboard"
)

var (
	ErrClipboard = errors.New("clipboard write failed")
	ErrPaste     = errors.New("paste simulation failed")
)

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	Copy(text string) error
}

// Paster injects the platform paste shortcut into the focused window.
type Paster interface {
	Paste() error
}

type systemClipboard struct{}

func (systemClipboard) Copy(text string) error { return clipboard.Copy(text) }

type systemPaster struct{}

func (systemPaster) Paste() error { return clipboard.Paste() }

// Deliverer performs output delivery. The zero dependencies are the
// real system clipboard and paster; tests swap in fakes.
type Deliverer struct {
	clip  Clipboard
	paste Paster
}

func New() *Deliverer {
	return &Deliverer{clip: systemClipboard{}, paste: systemPaster{}}
}

func NewWith(clip Clipboard, paste Paster) *Deliverer {
	return &Deliverer{clip: clip, paste: paste}
}

// Deliver writes text to the clipboard and, when autoPaste is set,
// simulates the paste keystroke afterwards. The keystroke fires only
// after the clipboard write succeeded. A paste failure does not undo
// the clipboard write, so the user can still paste manually.
//
// The paste target is whatever application is focused when the
// keystroke lands. Callers capture the frontmost application at
// recording start for attribution; re-targeting the paste is
// best-effort, not guaranteed.
func (d *Deliverer) Deliver(text string, autoPaste bool) error {
	if err := d.clip.Copy(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboard, err)
	}
	if !autoPaste {
		return nil
	}
	if err := d.paste.Paste(); err != nil {
		return fmt.Errorf("%w: %v", ErrPaste, err)
	}
	return nil
}

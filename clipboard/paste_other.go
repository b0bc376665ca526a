//go:build !linux

package clipboard

import (
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"
)

// Init is a no-op outside Linux; paste goes through the OS event APIs.
func Init() error { return nil }

// Paste sends the platform paste shortcut (Cmd+V on macOS, Ctrl+V
// elsewhere) to the focused application.
func Paste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	// Small delay so the clipboard write has propagated before the keystroke
	time.Sleep(50 * time.Millisecond)
	return kb.Launching()
}

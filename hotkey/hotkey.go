// Package hotkey delivers global Ctrl+Shift+Space press and release
// events regardless of which application has focus. Linux reads evdev
// directly so the hotkey works on Wayland; other platforms go through
// the system hotkey API.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
}

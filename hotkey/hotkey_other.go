//go:build !linux

package hotkey

import (
	"golang.design/x/hotkey"
)

type systemHotkey struct {
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
}

func New() Hotkey {
	return &systemHotkey{
		hk:      hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *systemHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	go forward(h.hk.Keydown(), h.keydown)
	go forward(h.hk.Keyup(), h.keyup)
	return nil
}

func forward(from <-chan hotkey.Event, to chan struct{}) {
	for range from {
		select {
		case to <- struct{}{}:
		default:
		}
	}
}

func (h *systemHotkey) Unregister() { h.hk.Unregister() }

func (h *systemHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *systemHotkey) Keyup() <-chan struct{}   { return h.keyup }

func Diagnose() (string, error) {
	return "hotkey support available (Ctrl+Shift+Space)", nil
}

//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// evdev key event constants. Reading /dev/input directly works on both
// X11 and Wayland, at the cost of needing membership in the input group.
const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0

	codeLCtrl  = 29
	codeRCtrl  = 97
	codeLShift = 42
	codeRShift = 54
	codeSpace  = 57
)

// struct input_event on 64-bit: timeval (16) + type (2) + code (2) + value (4).
const inputEventSize = 24

type evdevHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}

	files []*os.File
	stop  chan struct{}
	once  sync.Once
}

func New() Hotkey {
	return &evdevHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
	}
}

func (h *evdevHotkey) Register() error {
	keyboards, err := listKeyboards()
	if err != nil {
		return fmt.Errorf("scanning input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is the user in the 'input' group?)")
	}

	h.stop = make(chan struct{})
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		go h.readLoop(f)
	}
	if len(h.files) == 0 {
		return fmt.Errorf("cannot open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return nil
}

// chord tracks the modifier and space state for one keyboard. Each
// device gets its own tracker; the combo only fires when all three keys
// come from the same device, which is how people actually type it.
type chord struct {
	ctrl, shift, space bool
}

func (c *chord) apply(code uint16, value int32) (fired, released bool) {
	pressed := value == keyPress
	up := value == keyRelease

	switch code {
	case codeLCtrl, codeRCtrl:
		c.ctrl = pressed || (!up && c.ctrl)
	case codeLShift, codeRShift:
		c.shift = pressed || (!up && c.shift)
	case codeSpace:
		if pressed && !c.space && c.ctrl && c.shift {
			c.space = true
			return true, false
		}
		if up && c.space {
			c.space = false
			return false, true
		}
	}
	return false, false
}

func (h *evdevHotkey) readLoop(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var st chord

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			if evType != evKey {
				continue
			}
			code := binary.LittleEndian.Uint16(buf[i+18:])
			value := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			fired, released := st.apply(code, value)
			if fired {
				h.notify(h.keydown)
			}
			if released {
				h.notify(h.keyup)
			}
		}
	}
}

func (h *evdevHotkey) notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (h *evdevHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		for _, f := range h.files {
			f.Close()
		}
	})
}

func (h *evdevHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *evdevHotkey) Keyup() <-chan struct{}   { return h.keyup }

func listKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}
	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if hasKeyCapabilities(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

// hasKeyCapabilities filters out mice and buttons-only devices. Real
// keyboards advertise a long key capability bitmap.
func hasKeyCapabilities(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(data))) > 10
}

// Diagnose reports whether the hotkey can work on this system.
func Diagnose() (string, error) {
	keyboards, err := listKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is the user in the 'input' group?)")
	}
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), path), nil
		}
	}
	return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
}

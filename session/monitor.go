package session

import (
	"sync"

	"audioshift/audio"
	"audioshift/events"
)

// Monitor streams amplitude samples without buffering audio, used by
// the device picker and setup screens to show a live level meter. It
// holds the microphone open, so the controller stops it before
// recording starts.
type Monitor struct {
	audioCtx audio.Context
	bus      *events.Bus

	mu      sync.Mutex
	capture audio.CaptureDevice
}

func NewMonitor(audioCtx audio.Context, bus *events.Bus) *Monitor {
	return &Monitor{audioCtx: audioCtx, bus: bus}
}

// Start opens the named device (or the default for an empty name) and
// begins publishing amplitude events. A second Start switches devices.
func (m *Monitor) Start(deviceName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	device := audio.ResolveDevice(m.audioCtx, deviceName)
	capture, err := m.audioCtx.NewCapture(device, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return err
	}
	capture.SetCallback(func(data []byte, frameCount uint32) {
		m.bus.Publish(events.Amplitude{Level: audio.Level(data)})
	})
	if err := capture.Start(); err != nil {
		capture.Close()
		return err
	}
	m.capture = capture
	return nil
}

// Stop releases the microphone. Safe to call when not running.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.capture == nil {
		return
	}
	m.capture.ClearCallback()
	m.capture.Stop()
	m.capture.Close()
	m.capture = nil
}

// Running reports whether the monitor currently holds the microphone.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capture != nil
}

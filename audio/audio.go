package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	WAVHeaderSize = 44
)

// Device error kinds. Backends classify platform errors into these so
// callers can pick the right remediation message.
var (
	ErrDeviceNotFound   = errors.New("audio device not found")
	ErrPermissionDenied = errors.New("microphone access denied")
	ErrDeviceBusy       = errors.New("audio device busy")
)

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}

// ResolveDevice looks up a capture device by name. An unknown or empty
// name resolves to nil, meaning the system default; a previously
// selected device that disappeared must not make recording fail.
func ResolveDevice(ctx Context, name string) *DeviceInfo {
	if name == "" || name == "default" {
		return nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i]
		}
	}
	return nil
}

// Level computes the RMS loudness of a chunk of little-endian 16-bit
// mono PCM, normalized to [0,1].
func Level(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}
	var sumSquares float64
	n := 0
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
		n++
	}
	return math.Sqrt(sumSquares / float64(n))
}

// Duration in milliseconds of a raw s16le mono buffer at SampleRate.
func DurationMs(pcm []byte) int64 {
	frames := int64(len(pcm) / (BitsPerSample / 8))
	return frames * 1000 / SampleRate
}

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth reports whether a device name looks like a Bluetooth
// headset, which typically records at telephone quality.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

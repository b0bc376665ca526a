package audio

import (
	"os"
	"sync"
	"time"
)

const (
	fakeFrameSize     = 1024
	fakeBytesPerFrame = 2 // 16-bit mono
)

// FakeContext is an in-process Context whose captures replay a fixed
// PCM buffer. Used by tests and the headless -test driver.
type FakeContext struct {
	pcm      []byte
	realtime bool
}

// NewFakeContext builds a fake context that replays raw s16le mono PCM.
// In realtime mode chunks are paced at the capture sample rate; otherwise
// the whole buffer is delivered synchronously on Start.
func NewFakeContext(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

// NewFakeContextFromWAV loads PCM from a WAV file, skipping the header.
func NewFakeContextFromWAV(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return NewFakeContext(data, realtime), nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime}, nil
}

// FakeCapture replays PCM through the registered callback, then feeds
// silence until stopped.
type FakeCapture struct {
	pcm      []byte
	realtime bool

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) loadCallback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos, chunkBytes int) int {
	end := min(pos+chunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/fakeBytesPerFrame))
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	chunkBytes := fakeFrameSize * fakeBytesPerFrame

	if !f.realtime {
		if cb := f.loadCallback(); cb != nil {
			for pos := 0; pos < len(f.pcm); {
				pos = f.feedChunk(cb, pos, chunkBytes)
			}
		}
		// Trailing silence is paced at roughly real time so buffer
		// duration stays meaningful to callers.
		silenceFrames := SampleRate / 1000
		go func() {
			defer close(f.feedDone)
			silence := make([]byte, silenceFrames*fakeBytesPerFrame)
			for {
				select {
				case <-f.stopCh:
					return
				case <-time.After(time.Millisecond):
				}
				if cb := f.loadCallback(); cb != nil {
					cb(silence, uint32(silenceFrames))
				}
			}
		}()
		return nil
	}

	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(SampleRate)
	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-f.stopCh:
				return
			default:
			}

			cb := f.loadCallback()
			if cb == nil {
				time.Sleep(time.Millisecond)
				continue
			}

			if pos < len(f.pcm) {
				pos = f.feedChunk(cb, pos, chunkBytes)
			} else {
				cb(silence, fakeFrameSize)
			}

			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	if f.stopCh == nil {
		return
	}
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	<-f.feedDone
}

func (f *FakeCapture) Close() {}

package encoder

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// sinePCM generates n samples of a 440 Hz tone as raw s16le bytes.
func sinePCM(n int) []byte {
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(SampleRate)))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

func TestFlacEncoder(t *testing.T) {
	pcm := sinePCM(SampleRate) // 1 second
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}

	var buf bytes.Buffer
	enc, err := NewFlac(&buf)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	var totalFed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		block := samples[i:end]
		if err := enc.EncodeBlock(block); err != nil {
			t.Fatalf("EncodeBlock at offset %d: %v", i, err)
		}
		totalFed += uint64(len(block))
	}

	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != totalFed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), totalFed)
	}

	flacData := buf.Bytes()
	if len(flacData) < 4 || string(flacData[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewFlac(&buf)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.TotalFrames() != 0 {
		t.Errorf("TotalFrames = %d, want 0", enc.TotalFrames())
	}
	if buf.Len() == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}

func TestEncodeFLACPartialBlock(t *testing.T) {
	// A buffer that does not divide evenly into blocks.
	pcm := sinePCM(BlockSize + BlockSize/4)
	var buf bytes.Buffer
	if err := EncodeFLAC(&buf, pcm); err != nil {
		t.Fatalf("EncodeFLAC: %v", err)
	}
	if buf.Len() < 4 || string(buf.Bytes()[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

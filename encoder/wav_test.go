package encoder

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWriteWAVHeader(t *testing.T) {
	pcm := make([]byte, 16000*2) // 1 second
	var buf bytes.Buffer
	if err := WriteWAV(&buf, pcm); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	data := buf.Bytes()
	if len(data) != 44+len(pcm) {
		t.Fatalf("size = %d, want %d", len(data), 44+len(pcm))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(data[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint16(data[22:24]); got != Channels {
		t.Errorf("channels = %d, want %d", got, Channels)
	}
	if got := binary.LittleEndian.Uint16(data[34:36]); got != BitsPerSample {
		t.Errorf("bits per sample = %d, want %d", got, BitsPerSample)
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
}

func TestWriteWAVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, nil); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	if buf.Len() != 44 {
		t.Fatalf("size = %d, want header only", buf.Len())
	}
}

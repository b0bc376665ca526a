// Package encoder turns raw capture PCM into the on-disk formats used
// for history artifacts. Input is always s16le mono at the capture rate.
package encoder

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

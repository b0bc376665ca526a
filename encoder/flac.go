package encoder

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// FlacEncoder streams mono PCM16 blocks into a FLAC container.
type FlacEncoder struct {
	enc         *flac.Encoder
	totalFrames uint64
}

func NewFlac(w io.Writer) (*FlacEncoder, error) {
	info := &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    SampleRate,
		NChannels:     Channels,
		BitsPerSample: BitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(w, info)
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	return &FlacEncoder{enc: enc}, nil
}

func (e *FlacEncoder) EncodeBlock(block []int16) error {
	samples32 := make([]int32, len(block))
	for i, s := range block {
		samples32[i] = int32(s)
	}

	subframe := &frame.Subframe{
		SubHeader: frame.SubHeader{
			Pred: frame.PredVerbatim,
		},
		Samples:  samples32,
		NSamples: len(block),
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{subframe},
	}

	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *FlacEncoder) Close() error {
	return e.enc.Close()
}

func (e *FlacEncoder) TotalFrames() uint64 {
	return e.totalFrames
}

// EncodeFLAC compresses a raw s16le mono buffer into w.
func EncodeFLAC(w io.Writer, pcm []byte) error {
	enc, err := NewFlac(w)
	if err != nil {
		return err
	}

	block := make([]int16, 0, BlockSize)
	for i := 0; i+1 < len(pcm); i += 2 {
		block = append(block, int16(binary.LittleEndian.Uint16(pcm[i:])))
		if len(block) == BlockSize {
			if err := enc.EncodeBlock(block); err != nil {
				return err
			}
			block = block[:0]
		}
	}
	if len(block) > 0 {
		if err := enc.EncodeBlock(block); err != nil {
			return err
		}
	}
	return enc.Close()
}

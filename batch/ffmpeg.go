package batch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"audioshift/audio"
)

// decode is a seam so tests can feed PCM without an ffmpeg install.
var decode = decodePCM

// decodePCM shells out to ffmpeg to turn any media file into raw s16le
// mono PCM at the model sample rate. WAV files go through the same path
// so odd sample rates and multi-channel recordings are handled for free.
func decodePCM(ctx context.Context, path string) ([]byte, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found on PATH", ErrDecode)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "s16le",
		"-ac", fmt.Sprint(audio.Channels),
		"-ar", fmt.Sprint(audio.SampleRate),
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrDecode, msg)
	}
	return stdout.Bytes(), nil
}

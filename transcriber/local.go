package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"audioshift/encoder"
)

// Local runs the bundled model runners (whisper-cli for ggml models,
// parakeet-cli for onnx models) as subprocesses against a temp WAV.
// A single mutex serializes calls, so a live session and the file
// queue wait for each other at the engine boundary instead of racing
// for memory.
type Local struct {
	mu sync.Mutex

	// runner overrides for tests; default resolves from PATH.
	whisperBin  string
	parakeetBin string
}

func NewLocal() *Local {
	return &Local{whisperBin: "whisper-cli", parakeetBin: "parakeet-cli"}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Transcribe(ctx context.Context, pcm []byte, cfg Config) (string, error) {
	def, ok := FindModel(cfg.ModelID)
	if !ok {
		return "", fmt.Errorf("unknown model: %s", cfg.ModelID)
	}
	if !ModelReady(cfg.ModelID) {
		return "", fmt.Errorf("%w: %s", ErrModelNotReady, cfg.ModelID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	wavPath, err := writeTempWAV(pcm)
	if err != nil {
		return "", err
	}
	defer os.Remove(wavPath)

	switch def.Family {
	case FamilyWhisper:
		return l.runWhisper(ctx, wavPath, cfg)
	case FamilyParakeet:
		return l.runParakeet(ctx, wavPath, cfg)
	}
	return "", fmt.Errorf("unknown engine family: %s", def.Family)
}

func writeTempWAV(pcm []byte) (string, error) {
	f, err := os.CreateTemp("", "audioshift-*.wav")
	if err != nil {
		return "", fmt.Errorf("creating temp wav: %w", err)
	}
	if err := encoder.WriteWAV(f, pcm); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (l *Local) runWhisper(ctx context.Context, wavPath string, cfg Config) (string, error) {
	modelPath := filepath.Join(ModelDir(cfg.ModelID), "model.bin")

	args := []string{
		"-m", modelPath,
		"-f", wavPath,
		"--no-prints",
		"--no-timestamps",
	}
	lang := cfg.Language
	if lang == "" {
		lang = "auto"
	}
	args = append(args, "-l", lang)
	if cfg.Translate {
		args = append(args, "--translate")
	}

	return runCommand(ctx, l.whisperBin, args...)
}

func (l *Local) runParakeet(ctx context.Context, wavPath string, cfg Config) (string, error) {
	args := []string{
		"--model-dir", ModelDir(cfg.ModelID),
		"--audio", wavPath,
	}
	return runCommand(ctx, l.parakeetBin, args...)
}

func runCommand(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrInference, detail)
	}
	return strings.TrimSpace(stdout.String()), nil
}

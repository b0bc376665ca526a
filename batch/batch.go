// Package batch transcribes existing media files. Files are decoded to
// the model's native PCM format through ffmpeg, run through the engine
// one at a time, and the transcript is written next to a per-user
// output directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"audioshift/audio"
	"audioshift/events"
	"audioshift/settings"
	"audioshift/transcriber"
)

var (
	// ErrUnsupported marks a file whose extension is not a known media type.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrDecode wraps an ffmpeg failure (missing binary, corrupt file).
	ErrDecode = errors.New("could not decode media file")
)

var mediaExts = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".aac": true,
	".flac": true, ".ogg": true, ".opus": true, ".wma": true,
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true,
	".webm": true,
}

// IsMediaFile reports whether the path has a transcribable extension.
func IsMediaFile(path string) bool {
	return mediaExts[strings.ToLower(filepath.Ext(path))]
}

// DefaultOutputDir returns ~/Documents/AudioShift Transcriptions.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, "Documents", "AudioShift Transcriptions")
}

// Queue runs file transcription jobs serially. Progress flows through
// the event bus as FileProgress snapshots.
type Queue struct {
	engine    transcriber.Engine
	bus       *events.Bus
	settings  *settings.Store
	outputDir string

	mu sync.Mutex
	// speedRatio is audio seconds transcribed per wall second, measured
	// from completed jobs and blended so one outlier does not dominate.
	speedRatio float64
}

func NewQueue(engine transcriber.Engine, bus *events.Bus, st *settings.Store, outputDir string) *Queue {
	if outputDir == "" {
		outputDir = DefaultOutputDir()
	}
	return &Queue{engine: engine, bus: bus, settings: st, outputDir: outputDir}
}

// Transcribe runs one file end to end and returns the transcript path.
// ctx cancellation aborts both the decode and the model run.
func (q *Queue) Transcribe(ctx context.Context, path string) (string, error) {
	name := filepath.Base(path)

	fail := func(err error) (string, error) {
		q.bus.Publish(events.FileProgress{
			Status: "error", FileName: name, SourcePath: path, Err: err.Error(),
		})
		return "", err
	}

	if !IsMediaFile(path) {
		return fail(fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path)))
	}
	if _, err := os.Stat(path); err != nil {
		return fail(fmt.Errorf("reading %s: %w", name, err))
	}

	q.bus.Publish(events.FileProgress{Status: "converting", FileName: name, SourcePath: path})

	pcm, err := decode(ctx, path)
	if err != nil {
		return fail(err)
	}
	durationSecs := float64(audio.DurationMs(pcm)) / 1000

	cfg := transcriber.Config{
		ModelID:   q.settings.GetString(settings.KeyFileModel, transcriber.DefaultModelID),
		Language:  q.settings.GetString(settings.KeyLanguage, "auto"),
		Translate: q.settings.GetBool(settings.KeyTranslate, false),
	}

	estimate := q.estimateSecs(durationSecs)
	started := time.Now()
	stopTicker := make(chan struct{})
	go q.progressLoop(name, path, durationSecs, estimate, started, stopTicker)

	text, err := q.engine.Transcribe(ctx, pcm, cfg)
	close(stopTicker)
	if err != nil {
		return fail(err)
	}
	q.observeSpeed(durationSecs, time.Since(started))

	text = strings.TrimSpace(text)
	outPath, err := q.writeTranscript(path, text)
	if err != nil {
		return fail(err)
	}

	q.bus.Publish(events.FileProgress{
		Status:       "completed",
		FileName:     name,
		SourcePath:   path,
		Progress:     100,
		ElapsedSecs:  int64(time.Since(started).Seconds()),
		DurationSecs: durationSecs,
		ResultText:   text,
		OutputPath:   outPath,
	})
	return outPath, nil
}

// progressLoop publishes an estimated percentage once a second while
// the model runs. The estimate caps below 100 so only completion shows
// a full bar.
func (q *Queue) progressLoop(name, path string, durationSecs, estimateSecs float64, started time.Time, stop chan struct{}) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-t.C:
			elapsed := now.Sub(started).Seconds()
			pct := 0
			if estimateSecs > 0 {
				pct = min(int(elapsed/estimateSecs*100), 95)
			}
			q.bus.Publish(events.FileProgress{
				Status:       "transcribing",
				FileName:     name,
				SourcePath:   path,
				Progress:     pct,
				ElapsedSecs:  int64(elapsed),
				EstimateSecs: int64(estimateSecs),
				DurationSecs: durationSecs,
			})
		}
	}
}

// estimateSecs predicts wall time for a job from the observed speed
// ratio, defaulting to real time before any job has completed.
func (q *Queue) estimateSecs(durationSecs float64) float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.speedRatio <= 0 {
		return durationSecs
	}
	return durationSecs / q.speedRatio
}

func (q *Queue) observeSpeed(durationSecs float64, elapsed time.Duration) {
	if elapsed <= 0 || durationSecs <= 0 {
		return
	}
	ratio := durationSecs / elapsed.Seconds()
	q.mu.Lock()
	if q.speedRatio <= 0 {
		q.speedRatio = ratio
	} else {
		q.speedRatio = q.speedRatio*0.3 + ratio*0.7
	}
	q.mu.Unlock()
}

// writeTranscript saves text under the output directory at a path that
// never overwrites an existing transcript.
func (q *Queue) writeTranscript(sourcePath, text string) (string, error) {
	if err := os.MkdirAll(q.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))

	outPath := filepath.Join(q.outputDir, stem+".txt")
	for i := 2; ; i++ {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			break
		}
		if i > 100 {
			outPath = filepath.Join(q.outputDir, fmt.Sprintf("%s-%s.txt", stem, uuid.NewString()[:8]))
			break
		}
		outPath = filepath.Join(q.outputDir, fmt.Sprintf("%s (%d).txt", stem, i))
	}

	if err := os.WriteFile(outPath, []byte(text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing transcript: %w", err)
	}
	return outPath, nil
}

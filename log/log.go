// Package log writes the diagnostics log and the transcription log.
// Diagnostics go through zerolog into a plain-text console format so
// the file is readable without tooling; transcribed text goes to a
// separate file so users can grep what they dictated.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

// Metrics describes one completed local transcription.
type Metrics struct {
	AudioLengthS float64
	ProcessingMs float64
	RealtimeX    float64 // audio seconds per processing second
	Chars        int
}

// ResolveDir picks the log directory: -logpath flag, then the
// AUDIOSHIFT_LOG_PATH environment variable, then the OS default.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absolutize(flagPath)
	}
	if envPath := os.Getenv("AUDIOSHIFT_LOG_PATH"); envPath != "" {
		return absolutize(envPath)
	}
	return getDefaultDir()
}

func absolutize(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// TranscriptionMetrics records one completed transcription run.
func TranscriptionMetrics(m Metrics, mode, modelID string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("mode", mode).
		Str("model", modelID).
		Float64("audio_s", m.AudioLengthS).
		Float64("processing_ms", m.ProcessingMs).
		Float64("realtime_x", m.RealtimeX).
		Int("chars", m.Chars).
		Msg("transcription")
}

// TranscriptionText appends dictated text to the transcription log.
func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

func SessionStart(modelID, device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("model", modelID).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(count int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("count", count).
		Msg("session_end")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"audioshift/audio"
	"audioshift/batch"
	"audioshift/clipboard"
	"audioshift/deliver"
	"audioshift/doctor"
	"audioshift/events"
	"audioshift/history"
	"audioshift/hotkey"
	"audioshift/log"
	"audioshift/session"
	"audioshift/settings"
	"audioshift/shutdown"
	"audioshift/transcriber"
)

var version = "dev"

func main() {
	run()
}

func run() {
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	autoPasteFlag := flag.Bool("autopaste", true, "Auto-paste into the focused window after transcription")
	modelFlag := flag.String("model", "", "Speech model id (see -models)")
	modelsFlag := flag.Bool("models", false, "List available models and exit")
	deleteModelFlag := flag.String("delete-model", "", "Delete a downloaded model's files and exit")
	langFlag := flag.String("lang", "", "Transcription language code (e.g. en, es). Empty = auto-detect")
	translateFlag := flag.Bool("translate", false, "Translate speech to English (whisper models only)")
	fileFlag := flag.String("file", "", "Transcribe a media file and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven; takes a WAV file argument)")
	hybridFlag := flag.Bool("hybrid", false, "Hybrid tap-to-toggle + hold-to-talk recording mode")
	longPressFlag := flag.Duration("longpress", 350*time.Millisecond, "Long-press threshold for hold vs tap")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Parse()

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *versionFlag {
		fmt.Printf("audioshift %s\n", version)
		os.Exit(0)
	}
	if *doctorFlag {
		os.Exit(doctor.Run())
	}
	if *modelsFlag {
		printModels()
		os.Exit(0)
	}
	if *deleteModelFlag != "" {
		if err := transcriber.DeleteModel(*deleteModelFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted model %s\n", *deleteModelFlag)
		os.Exit(0)
	}

	settingsDir, err := settings.DefaultDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot resolve config directory: %v\n", err)
		os.Exit(1)
	}
	st, err := settings.Open(settingsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Explicitly passed flags become the new persisted preferences.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			st.SetString(settings.KeyLiveModel, *modelFlag)
			st.SetString(settings.KeyFileModel, *modelFlag)
		case "lang":
			st.SetString(settings.KeyLanguage, *langFlag)
		case "translate":
			st.SetBool(settings.KeyTranslate, *translateFlag)
		case "autopaste":
			st.SetBool(settings.KeyAutoPaste, *autoPasteFlag)
		case "device":
			st.SetString(settings.KeyInputDevice, *deviceFlag)
		}
	})

	modelID := st.GetString(settings.KeyLiveModel, transcriber.DefaultModelID)
	if _, ok := transcriber.FindModel(modelID); !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown model %q (see -models)\n", modelID)
		os.Exit(1)
	}

	bus := events.NewBus()
	engine := transcriber.NewLocal()

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: audioshift -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], st, bus)
		return
	}

	if !transcriber.ModelReady(modelID) {
		if err := downloadModel(bus, modelID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *fileFlag != "" {
		os.Exit(runFileMode(engine, bus, st, *fileFlag))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if st.GetBool(settings.KeyAutoPaste, true) {
		if err := clipboard.Init(); err != nil {
			fmt.Printf("Warning: paste init failed: %v\n", err)
			fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		}
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	if *setupFlag {
		dev, err := audio.SelectDevice(audioCtx)
		if err != nil {
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
		} else if dev != nil {
			st.SetString(settings.KeyInputDevice, dev.Name)
		}
	}

	ctrl := session.NewController(session.Options{
		Audio:     audioCtx,
		Engine:    engine,
		Deliverer: deliver.New(),
		History:   history.NewStore(history.DefaultDir()),
		Settings:  st,
		Bus:       bus,
	})
	ctrl.SetMonitor(session.NewMonitor(audioCtx, bus))

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	var tuiProgram *tea.Program
	if *tuiFlag {
		tuiProgram = startTUI(bus, modeLineText(st), deviceLineText(st), ctrl.Cancel)
		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown(tuiProgram)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		ctrl.Cancel()
		gracefulShutdown(tuiProgram)
	}()

	go logCompletions(bus)

	log.SessionStart(modelID, st.GetString(settings.KeyInputDevice, "default"))
	eventLoop(ctrl, hk, st, *hybridFlag, *longPressFlag)
}

// eventLoop translates hotkey gestures into controller calls. Plain
// mode is push-to-talk; hybrid mode adds tap-to-toggle.
func eventLoop(ctrl *session.Controller, hk hotkey.Hotkey, st *settings.Store, hybrid bool, longPress time.Duration) {
	autoPaste := func() bool { return st.GetBool(settings.KeyAutoPaste, true) }

	if hybrid {
		hy := hotkey.NewHybrid(hk, longPress)
		for {
			select {
			case <-hy.Start():
				if err := ctrl.Start(); err != nil {
					log.Errorf("recording start: %v", err)
				}
			case <-hy.StopChan():
				if err := ctrl.Stop(autoPaste()); err != nil {
					log.Errorf("recording stop: %v", err)
				}
			}
		}
	}

	for {
		<-hk.Keydown()
		if err := ctrl.Start(); err != nil {
			log.Errorf("recording start: %v", err)
			continue
		}
		<-hk.Keyup()
		if err := ctrl.Stop(autoPaste()); err != nil {
			log.Errorf("recording stop: %v", err)
		}
	}
}

// logCompletions mirrors session outcomes into the diagnostic and
// transcription logs.
func logCompletions(bus *events.Bus) {
	ch, cancel := bus.Subscribe(256)
	defer cancel()
	count := 0
	for ev := range ch {
		switch ev := ev.(type) {
		case events.Completed:
			if ev.NoSpeech {
				log.Info("no speech detected")
				continue
			}
			count++
			log.TranscriptionText(ev.Text)
			log.TranscriptionMetrics(log.Metrics{
				AudioLengthS: float64(ev.DurationMs) / 1000,
				ProcessingMs: float64(ev.ProcessingMs),
				RealtimeX:    speedup(ev.DurationMs, ev.ProcessingMs),
				Chars:        len(ev.Text),
			}, "live", "")
		case events.SessionError:
			log.Errorf("session error: %s", ev.Message)
		}
	}
	log.SessionEnd(count)
}

func modeLineText(st *settings.Store) string {
	model := st.GetString(settings.KeyLiveModel, transcriber.DefaultModelID)
	lang := st.GetString(settings.KeyLanguage, "auto")
	label := fmt.Sprintf("[%s | %s]", model, lang)
	if st.GetBool(settings.KeyTranslate, false) {
		label += " (translate)"
	}
	return label
}

func deviceLineText(st *settings.Store) string {
	name := st.GetString(settings.KeyInputDevice, "")
	suffix := ""
	if name == "" {
		name = "system default"
	} else if audio.IsBluetooth(name) {
		suffix = " (BT!)"
	}
	return "mic: " + name + suffix
}

func gracefulShutdown(tuiProgram *tea.Program) {
	log.Close()
	if tuiProgram != nil {
		tuiProgram.Quit()
	}
	os.Exit(0)
}

func printModels() {
	fmt.Println("Available models:")
	for _, s := range transcriber.AllModelStatus() {
		state := "not downloaded"
		if s.Ready {
			state = "ready"
		}
		fmt.Printf("  %-28s %-8s %-10s %s\n", s.ID, s.SizeLabel, state, s.Description)
	}
}

// downloadModel fetches the model with console progress.
func downloadModel(bus *events.Bus, modelID string) error {
	fmt.Printf("Model %s is not downloaded, fetching...\n", modelID)

	ch, cancel := bus.Subscribe(64)
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := -1
		for ev := range ch {
			if dl, ok := ev.(events.ModelDownload); ok && dl.Progress != last {
				last = dl.Progress
				fmt.Printf("\r  %s %d%%   ", dl.File, dl.Progress)
			}
		}
	}()

	err := transcriber.EnsureModel(context.Background(), bus, modelID)
	cancel()
	<-done
	fmt.Println()
	if err != nil {
		return fmt.Errorf("model download failed: %w", err)
	}
	fmt.Println("Model ready.")
	return nil
}

// runFileMode transcribes one media file and prints the result.
func runFileMode(engine transcriber.Engine, bus *events.Bus, st *settings.Store, path string) int {
	ch, cancel := bus.Subscribe(64)
	defer cancel()
	go func() {
		for ev := range ch {
			if fp, ok := ev.(events.FileProgress); ok && fp.Status == "transcribing" {
				fmt.Printf("\r  %d%% (%ds elapsed)   ", fp.Progress, fp.ElapsedSecs)
			}
		}
	}()

	q := batch.NewQueue(engine, bus, st, "")
	fmt.Printf("Transcribing %s...\n", path)
	outPath, err := q.Transcribe(context.Background(), path)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Transcript saved to %s\n", outPath)
	return 0
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"audioshift/audio"
	"audioshift/clipboard"
	"audioshift/deliver"
	"audioshift/events"
	"audioshift/frontmost"
	"audioshift/history"
	"audioshift/log"
	"audioshift/session"
	"audioshift/settings"
	"audioshift/transcriber"
)

// runTestMode drives a full session pipeline from stdin commands with a
// WAV file standing in for the microphone. Commands: KEYDOWN, KEYUP,
// CANCEL, WAIT (block until the session settles), SLEEP <ms>, QUIT.
func runTestMode(wavPath string, st *settings.Store, bus *events.Bus) {
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if st.GetBool(settings.KeyAutoPaste, true) {
		if err := clipboard.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
		}
	}

	fakeCtx, err := audio.NewFakeContextFromWAV(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	historyDir := os.Getenv("AUDIOSHIFT_HISTORY_DIR")
	if historyDir == "" {
		historyDir = history.DefaultDir()
	}

	ctrl := session.NewController(session.Options{
		Audio:     fakeCtx,
		Engine:    transcriber.NewLocal(),
		Deliverer: deliver.New(),
		History:   history.NewStore(historyDir),
		Settings:  st,
		Bus:       bus,
		Frontmost: func() frontmost.AppContext { return frontmost.AppContext{AppName: "testenv"} },
	})

	// settled fires when a stopped session reaches a terminal outcome.
	settled := make(chan struct{}, 1)
	ch, cancel := bus.Subscribe(256)
	defer cancel()
	go func() {
		for ev := range ch {
			switch ev := ev.(type) {
			case events.Completed:
				if ev.NoSpeech {
					fmt.Println("RESULT\t(no speech)")
				} else {
					fmt.Printf("RESULT\t%s\n", ev.Text)
				}
				signalSettled(settled)
			case events.SessionError:
				fmt.Printf("ERROR\t%s\n", ev.Message)
				signalSettled(settled)
			}
		}
	}()

	autoPaste := st.GetBool(settings.KeyAutoPaste, true)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "KEYDOWN":
			if err := ctrl.Start(); err != nil {
				fmt.Printf("ERROR\t%v\n", err)
			}
		case cmd == "KEYUP":
			if err := ctrl.Stop(autoPaste); err != nil {
				fmt.Printf("ERROR\t%v\n", err)
			}
		case cmd == "CANCEL":
			ctrl.Cancel()
		case cmd == "WAIT":
			select {
			case <-settled:
			case <-time.After(2 * time.Minute):
				fmt.Println("ERROR\twait timed out")
			}
		case cmd == "QUIT":
			return
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(cmd[6:]); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		}
	}
}

func signalSettled(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

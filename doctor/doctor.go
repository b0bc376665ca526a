package doctor

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"audioshift/audio"
	"audioshift/clipboard"
	"audioshift/events"
	"audioshift/hotkey"
	"audioshift/session"
	"audioshift/transcriber"
)

// Run executes interactive diagnostic checks and returns an exit code
// (0 = all pass, 1 = any fail).
func Run() int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("audioshift doctor - interactive system diagnostics")
	fmt.Println("==================================================")

	allPass := true

	if !checkHotkey() {
		allPass = false
	}
	if allPass && !checkMicrophone() {
		allPass = false
	}
	if !checkModels() {
		allPass = false
	}
	if !checkFfmpeg() {
		// File transcription is optional; warn but do not fail.
	}
	if allPass && !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[1/5] Hotkey detection")

	if msg, err := hotkey.Diagnose(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	} else {
		fmt.Printf("  %s\n", msg)
	}

	fmt.Println("Press Ctrl+Shift+Space...")
	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: hotkey detected")
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// The hotkey backend may leave the terminal in raw mode.
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicrophone() bool {
	fmt.Println()
	fmt.Println("[2/5] Microphone capture")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}
	fmt.Printf("  %d capture device(s) found\n", len(devices))

	device := pickDevice(devices)
	if device != nil {
		fmt.Printf("  Using device: %s\n", device.Name)
		if audio.IsBluetooth(device.Name) {
			fmt.Println("  Warning: Bluetooth headsets record at reduced quality")
		}
	}

	deviceName := ""
	if device != nil {
		deviceName = device.Name
	}
	fmt.Println("  Speak for 2 seconds...")
	peak, samples, err := monitorLevel(ctx, deviceName, 2*time.Second)
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	if samples == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}

	fmt.Printf("  Captured %d amplitude samples, peak level %.2f\n", samples, peak)
	if peak < 0.01 {
		fmt.Println("  FAIL: microphone appears silent (muted or wrong device?)")
		return false
	}
	fmt.Println("  PASS: microphone captures audio")
	return true
}

func pickDevice(devices []audio.DeviceInfo) *audio.DeviceInfo {
	if len(devices) == 1 {
		return &devices[0]
	}
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("  Select input device:")
	for i, d := range devices {
		fmt.Printf("    %d. %s\n", i+1, d.Name)
	}
	fmt.Printf("  Choice [1-%d, Enter for 1]: ", len(devices))
	choice, _ := reader.ReadString('\n')
	choice = strings.TrimSpace(choice)
	idx := 0
	if choice != "" {
		fmt.Sscanf(choice, "%d", &idx)
		idx--
	}
	if idx < 0 || idx >= len(devices) {
		return &devices[0]
	}
	return &devices[idx]
}

// monitorLevel runs the session amplitude monitor for d and reports
// the peak level and how many amplitude samples arrived.
func monitorLevel(ctx audio.Context, deviceName string, d time.Duration) (float64, int, error) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(256)
	defer cancel()

	mon := session.NewMonitor(ctx, bus)
	if err := mon.Start(deviceName); err != nil {
		return 0, 0, err
	}
	defer mon.Stop()

	var peak float64
	samples := 0
	deadline := time.After(d)
	for {
		select {
		case ev := <-ch:
			if a, ok := ev.(events.Amplitude); ok {
				samples++
				if a.Level > peak {
					peak = a.Level
				}
			}
		case <-deadline:
			return peak, samples, nil
		}
	}
}

func checkModels() bool {
	fmt.Println()
	fmt.Println("[3/5] Speech models")

	any := false
	for _, st := range transcriber.AllModelStatus() {
		state := "not downloaded"
		if st.Ready {
			state = "ready"
			any = true
		}
		fmt.Printf("  %-28s %s\n", st.ID, state)
	}
	if !any {
		fmt.Println("  FAIL: no model downloaded (run with -model to fetch one)")
		return false
	}
	fmt.Println("  PASS: at least one model is ready")
	return true
}

func checkFfmpeg() bool {
	fmt.Println()
	fmt.Println("[4/5] ffmpeg (file transcription)")

	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		fmt.Println("  Warning: ffmpeg not found on PATH; -file mode will not work")
		return false
	}
	fmt.Printf("  PASS: %s\n", path)
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[5/5] Clipboard and paste")

	if err := clipboard.Init(); err != nil {
		fmt.Printf("  Warning: paste init: %v\n", err)
	}

	testStr := fmt.Sprintf("audioshift-doctor-%d", time.Now().UnixNano())
	if err := clipboard.Copy(testStr); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	got, err := clipboard.Read()
	if err != nil {
		fmt.Printf("  FAIL: clipboard read failed: %v\n", err)
		return false
	}
	if got != testStr {
		fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, got)
		return false
	}
	fmt.Println("  PASS: clipboard write/read verified")

	fmt.Println("  Focus on a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("    %d...\n", i)
		time.Sleep(time.Second)
	}

	if err := clipboard.Copy("audioshift-paste-test"); err != nil {
		fmt.Printf("  FAIL: clipboard copy failed: %v\n", err)
		return false
	}
	if err := clipboard.Paste(); err != nil {
		fmt.Printf("  FAIL: paste failed: %v\n", err)
		return false
	}

	resetTerminal()
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("  Did \"audioshift-paste-test\" appear? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: paste not confirmed")
		return false
	}
	fmt.Println("  PASS: paste verified by user")
	return true
}

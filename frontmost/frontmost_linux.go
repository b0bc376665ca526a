//go:build linux

package frontmost

import (
	"os/exec"
	"strings"
)

func capture() AppContext {
	var ctx AppContext
	if out, err := exec.Command("xdotool", "getactivewindow", "getwindowname").Output(); err == nil {
		ctx.WindowTitle = strings.TrimSpace(string(out))
	}
	if out, err := exec.Command("xdotool", "getactivewindow", "getwindowclassname").Output(); err == nil {
		ctx.AppName = strings.TrimSpace(string(out))
	}
	return ctx
}

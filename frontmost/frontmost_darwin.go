//go:build darwin

package frontmost

import (
	"os/exec"
	"strings"
)

const script = `
tell application "System Events"
	set frontApp to first application process whose frontmost is true
	set appName to name of frontApp
	try
		set winTitle to name of front window of frontApp
	on error
		set winTitle to ""
	end try
	return appName & "|||" & winTitle
end tell
`

func capture() AppContext {
	out, err := exec.Command("osascript", "-e", script).Output()
	if err != nil {
		return AppContext{}
	}
	raw := strings.TrimSpace(string(out))
	name, title, _ := strings.Cut(raw, "|||")
	return AppContext{AppName: name, WindowTitle: title}
}

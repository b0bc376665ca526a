// Package frontmost captures the identity of the currently focused
// application, used to attribute history entries and as the best-effort
// paste target. Both fields are empty when the platform cannot tell.
package frontmost

// AppContext identifies the application that had focus at recording start.
type AppContext struct {
	AppName     string
	WindowTitle string
}

func Capture() AppContext {
	return capture()
}

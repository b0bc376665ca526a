// Package clipboard wraps the system clipboard and the platform paste
// keystroke. Copy/Read go through the native clipboard; Paste injects
// the platform paste shortcut into the focused application.
package clipboard

import cb "github.com/atotto/clipboard"

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

//go:build !linux && !darwin

package frontmost

func capture() AppContext {
	return AppContext{}
}

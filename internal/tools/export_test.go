package tools

import "testing"

// SetHostOS overrides the operating system used for executable names and
// hints for the duration of t.
func SetHostOS(t *testing.T, goos string) {
	t.Helper()
	prev := hostOS
	hostOS = goos
	t.Cleanup(func() { hostOS = prev })
}

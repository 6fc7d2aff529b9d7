package bootstrap

import (
	"path/filepath"
	"strings"

	"envsetup/internal/platform"
)

// DetectShell names the shell "conda init" should configure, based on the
// value of $SHELL. Unrecognized shells fall back to bash; Windows always
// uses powershell.
func DetectShell(shellEnv string, info platform.Info) string {
	if info.OSFamily == platform.Windows {
		return "powershell"
	}
	base := strings.ToLower(filepath.Base(strings.TrimSpace(shellEnv)))
	switch base {
	case "zsh", "fish", "bash", "tcsh", "xonsh":
		return base
	default:
		return "bash"
	}
}

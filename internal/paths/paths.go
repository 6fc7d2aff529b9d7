package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"envsetup/internal/config"
)

// Layout captures the per-user locations envsetup reads and writes.
type Layout struct {
	Home         string
	StateDir     string
	LogsDir      string
	DownloadsDir string
	ConfigFile   string
	InstallDir   string
}

// Resolve builds the default layout for the current user.
func Resolve() (Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Layout{}, fmt.Errorf("detect user home: %w", err)
	}
	return newLayout(home, os.Getenv("XDG_CONFIG_HOME")), nil
}

func newLayout(home, xdgConfig string) Layout {
	state := filepath.Join(home, ".envsetup")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return Layout{
		Home:         home,
		StateDir:     state,
		LogsDir:      filepath.Join(state, "logs"),
		DownloadsDir: filepath.Join(state, "downloads"),
		ConfigFile:   filepath.Join(xdgConfig, config.AppName, "config.yaml"),
		InstallDir:   filepath.Join(home, "miniconda3"),
	}
}

// ConfigSearchPaths lists the files config.Load tries when --config is not
// given, in order.
func (l Layout) ConfigSearchPaths() []string {
	return []string{l.ConfigFile, config.LocalFileName}
}

// ApplyConfig overrides layout locations with configured values. A leading
// "~" is expanded against the user's home.
func ApplyConfig(l Layout, cfg config.Config) Layout {
	if dir := strings.TrimSpace(cfg.Conda.InstallDir); dir != "" {
		l.InstallDir = l.Expand(dir)
	}
	if dir := strings.TrimSpace(cfg.Log.Dir); dir != "" {
		l.LogsDir = l.Expand(dir)
	}
	return l
}

// Expand resolves "~" and "~/..." against Home and cleans the result.
func (l Layout) Expand(value string) string {
	switch {
	case value == "~":
		return l.Home
	case strings.HasPrefix(value, "~/"), strings.HasPrefix(value, `~\`):
		return filepath.Join(l.Home, value[2:])
	}
	return filepath.Clean(value)
}

// CondaExecutable returns the conda binary inside an install prefix.
func CondaExecutable(installDir, goos string) string {
	if goos == "windows" {
		return filepath.Join(installDir, "Scripts", "conda.exe")
	}
	return filepath.Join(installDir, "bin", "conda")
}

// CondaEnvDir is where conda places a named environment under installDir.
func CondaEnvDir(installDir, name string) string {
	return filepath.Join(installDir, "envs", name)
}

// VenvBinDir is the scripts directory of a virtual environment.
func VenvBinDir(envDir string, windows bool) string {
	if windows {
		return filepath.Join(envDir, "Scripts")
	}
	return filepath.Join(envDir, "bin")
}

// EnsureStateDirs creates the logs and downloads directories.
func (l Layout) EnsureStateDirs() error {
	for _, dir := range []string{l.StateDir, l.LogsDir, l.DownloadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Exists reports whether anything is present at path.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

package envmgr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"envsetup/internal/issue"
	"envsetup/internal/logx"
	"envsetup/internal/paths"
	"envsetup/internal/tools"
)

// VenvManager manages a virtual environment at <RootDirectory>/<Name>. The
// registry is the directory itself: pyvenv.cfg marks a Present environment.
type VenvManager struct {
	Runner tools.Runner
	// Python is the negotiated interpreter used to create the environment.
	Python string
	Logger *log.Logger
	Stdout io.Writer
	Stderr io.Writer
	// Windows selects the Scripts\ layout.
	Windows bool
}

func (m *VenvManager) Kind() string { return "venv" }

func (m *VenvManager) Target(spec Spec) string {
	return filepath.Join(spec.RootDirectory, spec.Name)
}

func (m *VenvManager) Probe(_ context.Context, spec Spec) (State, error) {
	ok, err := paths.FileExists(filepath.Join(m.Target(spec), "pyvenv.cfg"))
	if err != nil {
		return Absent, err
	}
	if ok {
		return Present, nil
	}
	return Absent, nil
}

func (m *VenvManager) Preflight(_ context.Context, spec Spec) error {
	target := m.Target(spec)
	exists, err := paths.Exists(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}
	if exists {
		return issue.New(issue.KindEnvironmentCollision, "create venv",
			errors.New("target exists but is not a virtual environment")).
			WithResource(target).
			WithSuggestion("Remove %s or choose another name with -n", target)
	}
	return nil
}

func (m *VenvManager) Create(ctx context.Context, spec Spec) error {
	target := m.Target(spec)
	if err := os.MkdirAll(spec.RootDirectory, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", spec.RootDirectory, err)
	}
	if err := m.run(ctx, m.Python, []string{"-m", "venv", target}, nil); err != nil {
		return err
	}
	if err := m.run(ctx, m.envPython(target), []string{"-m", "pip", "install", "-r", spec.ManifestPath}, m.activation(target)); err != nil {
		return err
	}
	return recordManifest(spec.ManifestPath, target)
}

// Update uninstalls the projects dropped from the manifest since the last
// run, then installs the manifest with --upgrade.
func (m *VenvManager) Update(ctx context.Context, spec Spec) error {
	target := m.Target(spec)
	removed, err := removedRequirements(filepath.Join(target, appliedManifest), spec.ManifestPath)
	if err != nil {
		return err
	}
	if len(removed) > 0 {
		args := append([]string{"-m", "pip", "uninstall", "-y"}, removed...)
		if err := m.run(ctx, m.envPython(target), args, m.activation(target)); err != nil {
			return err
		}
	}
	if err := m.run(ctx, m.envPython(target), []string{"-m", "pip", "install", "--upgrade", "-r", spec.ManifestPath}, m.activation(target)); err != nil {
		return err
	}
	return recordManifest(spec.ManifestPath, target)
}

func (m *VenvManager) binDir(target string) string {
	return paths.VenvBinDir(target, m.Windows)
}

func (m *VenvManager) envPython(target string) string {
	if m.Windows {
		return filepath.Join(m.binDir(target), "python.exe")
	}
	return filepath.Join(m.binDir(target), "python")
}

func (m *VenvManager) activation(target string) []string {
	return []string{
		"VIRTUAL_ENV=" + target,
		"PATH=" + m.binDir(target) + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}

func (m *VenvManager) run(ctx context.Context, command string, args, env []string) error {
	logger := m.Logger
	if logger == nil {
		logger = logx.Discard()
	}
	logger.Info("exec", "argv", command+" "+strings.Join(args, " "))
	res, err := m.Runner.Run(ctx, command, args, tools.RunOptions{Env: env, Stdout: m.Stdout, Stderr: m.Stderr})
	if err != nil {
		logger.Error("exec failed", "err", err, "stderr", string(res.Stderr))
		return withStderr(err, res.Stderr)
	}
	return nil
}

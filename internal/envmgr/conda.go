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

// CondaManager manages named conda environments through the conda CLI.
type CondaManager struct {
	Runner tools.Runner
	// Conda is the resolved conda executable.
	Conda  string
	Logger *log.Logger
	// Stdout and Stderr, when set, receive conda's output as it runs.
	Stdout, Stderr io.Writer
}

func (m *CondaManager) Kind() string { return "conda" }

func (m *CondaManager) Probe(ctx context.Context, spec Spec) (State, error) {
	reg, err := ReadRegistry(ctx, m.Runner, m.Conda)
	if err != nil {
		return Absent, err
	}
	if _, ok := reg.Lookup(spec.Name); ok {
		return Present, nil
	}
	return Absent, nil
}

func (m *CondaManager) Target(spec Spec) string {
	root := spec.RootDirectory
	if root == "" {
		root = RootPrefix(m.Conda)
	}
	return paths.CondaEnvDir(root, spec.Name)
}

func (m *CondaManager) Preflight(_ context.Context, spec Spec) error {
	target := m.Target(spec)
	exists, err := paths.Exists(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}
	if exists {
		return issue.New(issue.KindEnvironmentCollision, "create conda environment",
			errors.New("directory already exists but is not a registered environment")).
			WithResource(target).
			WithSuggestion("Remove %s or choose another name with -n", target)
	}
	return nil
}

func (m *CondaManager) Create(ctx context.Context, spec Spec) error {
	return m.run(ctx, []string{"env", "create", "-n", spec.Name, "-f", spec.ManifestPath}, nil)
}

// Update activates the registered environment and converges it to the
// manifest; --prune removes dependencies the manifest no longer lists.
func (m *CondaManager) Update(ctx context.Context, spec Spec) error {
	reg, err := ReadRegistry(ctx, m.Runner, m.Conda)
	if err != nil {
		return err
	}
	prefix, ok := reg.Lookup(spec.Name)
	if !ok {
		return fmt.Errorf("environment %s disappeared before update", spec.Name)
	}
	return m.run(ctx, []string{"env", "update", "-n", spec.Name, "-f", spec.ManifestPath, "--prune"},
		CondaActivation(spec.Name, prefix))
}

// CondaActivation returns the variables "conda activate" would set for the
// environment at prefix.
func CondaActivation(name, prefix string) []string {
	bin := filepath.Join(prefix, "bin")
	if strings.Contains(prefix, `\`) {
		bin = prefix + `\Scripts`
	}
	return []string{
		"CONDA_PREFIX=" + prefix,
		"CONDA_DEFAULT_ENV=" + name,
		"PATH=" + bin + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}

func (m *CondaManager) run(ctx context.Context, args []string, env []string) error {
	logger := m.Logger
	if logger == nil {
		logger = logx.Discard()
	}
	logger.Info("exec", "argv", m.Conda+" "+strings.Join(args, " "))
	res, err := m.Runner.Run(ctx, m.Conda, args, tools.RunOptions{Env: env, Stdout: m.Stdout, Stderr: m.Stderr})
	if err != nil {
		logger.Error("exec failed", "err", err, "stderr", string(res.Stderr))
		return withStderr(err, res.Stderr)
	}
	logger.Debug("exec done", "stdout", string(res.Stdout))
	return nil
}

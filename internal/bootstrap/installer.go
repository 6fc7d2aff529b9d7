package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/syntax"

	"envsetup/internal/issue"
	"envsetup/internal/logx"
	"envsetup/internal/paths"
	"envsetup/internal/platform"
	"envsetup/internal/tools"
)

// State tracks the installer's progress.
type State int

const (
	StateNotInstalled State = iota
	StateAwaitingConsent
	StateDownloading
	StateInstalling
	StateInstalled
	StateDeclined
	StateAbort
)

func (s State) String() string {
	switch s {
	case StateNotInstalled:
		return "not-installed"
	case StateAwaitingConsent:
		return "awaiting-consent"
	case StateDownloading:
		return "downloading"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateDeclined:
		return "declined"
	case StateAbort:
		return "abort"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Installer installs Miniconda unattended when conda is missing.
type Installer struct {
	Runner   tools.Runner
	Prompter Prompter
	Fetcher  Fetcher
	Platform platform.Info
	Logger   *log.Logger

	InstallDir    string
	DownloadsDir  string
	InstallerName string
	URLTemplate   string
	// Shell is passed to "conda init".
	Shell string

	// OnTransition, when set, observes every state change.
	OnTransition func(from, to State)

	state State
}

// Result describes a completed install.
type Result struct {
	CondaPath    string `json:"conda_path"`
	InstallDir   string `json:"install_dir"`
	ArtifactURL  string `json:"artifact_url"`
	ArtifactPath string `json:"artifact_path"`
	Shell        string `json:"shell"`
}

// State returns the current state.
func (i *Installer) State() State { return i.state }

// Run walks StateNotInstalled to StateInstalled. Any failure moves to
// StateAbort and is returned as an *issue.Error; nothing is retried.
func (i *Installer) Run(ctx context.Context) (Result, error) {
	i.state = StateNotInstalled
	logger := i.logger()

	if err := i.Preflight(); err != nil {
		i.transition(StateAbort)
		return Result{}, err
	}

	i.transition(StateAwaitingConsent)
	answer, err := i.Prompter.Ask(ctx, i.Question())
	if err != nil {
		i.transition(StateAbort)
		return Result{}, issue.New(issue.KindConsentDeclined, "install conda", err).
			WithSuggestion("Re-run with --yes to install without prompting")
	}
	decision := Decide(answer)
	logger.Info("consent", "answer", answer, "decision", decision)
	if decision == Declined {
		i.transition(StateDeclined)
		i.transition(StateAbort)
		return Result{}, issue.New(issue.KindConsentDeclined, "install conda", errors.New("installation declined")).
			WithSuggestion("conda is required; the environment will not be created or updated").
			WithSuggestion("Re-run and answer y, or install Miniconda manually into %s", i.InstallDir)
	}

	i.transition(StateDownloading)
	url := RenderURL(i.template(), i.name(), i.Platform)
	artifact := filepath.Join(i.DownloadsDir, ArtifactName(i.template(), i.name(), i.Platform))
	logger.Info("download", "url", url, "dest", artifact, "fetcher", i.Fetcher.Name())
	if err := i.Fetcher.Fetch(ctx, url, artifact); err != nil {
		i.transition(StateAbort)
		logger.Error("download failed", "err", err)
		return Result{}, issue.New(issue.KindTransferFailed, "download installer", err).
			WithResource(url).
			WithSuggestion("Check your network connection and re-run")
	}

	i.transition(StateInstalling)
	command, args := i.batchCommand(artifact)
	if err := i.run(ctx, "run installer", command, args); err != nil {
		i.transition(StateAbort)
		return Result{}, err
	}

	conda := paths.CondaExecutable(i.InstallDir, i.goos())
	if ok, _ := paths.FileExists(conda); !ok {
		i.transition(StateAbort)
		return Result{}, issue.New(issue.KindInstallFailed, "install conda", errors.New("installer finished but conda is missing")).
			WithResource(conda)
	}

	shell := i.Shell
	if shell == "" {
		shell = DetectShell("", i.Platform)
	}
	if err := i.run(ctx, "initialize shell integration", conda, []string{"init", shell}); err != nil {
		i.transition(StateAbort)
		return Result{}, err
	}
	if err := i.run(ctx, "disable base auto-activation", conda, []string{"config", "--set", "auto_activate_base", "false"}); err != nil {
		i.transition(StateAbort)
		return Result{}, err
	}

	i.transition(StateInstalled)
	return Result{
		CondaPath:    conda,
		InstallDir:   i.InstallDir,
		ArtifactURL:  url,
		ArtifactPath: artifact,
		Shell:        shell,
	}, nil
}

// Preflight fails with InstallFailed when the install directory is already
// taken; the batch installers refuse to write into an existing directory.
func (i *Installer) Preflight() error {
	exists, err := paths.Exists(i.InstallDir)
	if err == nil && !exists {
		return nil
	}
	cause := errors.New("install directory already exists")
	if err != nil {
		cause = err
	}
	return issue.New(issue.KindInstallFailed, "install conda", cause).
		WithResource(i.InstallDir).
		WithSuggestion("Remove or rename %s, or pass --install-dir with an unused directory", i.InstallDir)
}

// Question is the consent prompt shown before downloading.
func (i *Installer) Question() string {
	return fmt.Sprintf("conda was not found. Download %s and install it into %s?", i.name(), i.InstallDir)
}

// batchCommand returns the unattended invocation for the artifact.
func (i *Installer) batchCommand(artifact string) (string, []string) {
	if i.Platform.OSFamily == platform.Windows {
		return artifact, []string{"/InstallationType=JustMe", "/RegisterPython=0", "/S", "/D=" + i.InstallDir}
	}
	return "bash", []string{artifact, "-b", "-p", i.InstallDir}
}

func (i *Installer) run(ctx context.Context, op, command string, args []string) error {
	logger := i.logger()
	logger.Info("exec", "op", op, "argv", strings.Join(append([]string{command}, args...), " "))
	res, err := i.Runner.Run(ctx, command, args, tools.RunOptions{})
	if err != nil {
		logger.Error("exec failed", "op", op, "err", err, "stderr", lastLines(string(res.Stderr), 5))
		cause := err
		if tail := lastLines(string(res.Stderr), 3); tail != "" {
			cause = fmt.Errorf("%w: %s", err, tail)
		}
		return issue.New(issue.KindInstallFailed, op, cause).
			WithResource(i.InstallDir).
			WithSuggestion("See the run log for the full installer output")
	}
	return nil
}

func (i *Installer) transition(to State) {
	from := i.state
	i.state = to
	i.logger().Debug("bootstrap", "from", from, "to", to)
	if i.OnTransition != nil {
		i.OnTransition(from, to)
	}
}

func (i *Installer) logger() *log.Logger {
	if i.Logger == nil {
		i.Logger = logx.Discard()
	}
	return i.Logger
}

func (i *Installer) name() string {
	if i.InstallerName == "" {
		return "Miniconda3"
	}
	return i.InstallerName
}

func (i *Installer) template() string {
	if i.URLTemplate == "" {
		return DefaultURLTemplate
	}
	return i.URLTemplate
}

func (i *Installer) goos() string {
	if i.Platform.OSFamily == platform.Windows {
		return "windows"
	}
	return "unix"
}

// ShellHookHint is the command that enables conda in the current shell
// without restarting it.
func ShellHookHint(condaPath, shell string) string {
	quoted, err := syntax.Quote(condaPath, syntax.LangBash)
	if err != nil {
		quoted = condaPath
	}
	if shell == "fish" {
		return fmt.Sprintf("%s shell.fish hook | source", quoted)
	}
	if shell == "powershell" {
		return fmt.Sprintf("(& %s 'shell.powershell' 'hook') | Out-String | Invoke-Expression", quoted)
	}
	return fmt.Sprintf(`eval "$(%s shell.%s hook)"`, quoted, shell)
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

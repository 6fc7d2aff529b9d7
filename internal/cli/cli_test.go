package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"envsetup/internal/bootstrap"
	"envsetup/internal/issue"
	"envsetup/internal/paths"
	"envsetup/internal/platform"
	"envsetup/internal/tools"
	"envsetup/internal/tools/toolstest"
)

type harness struct {
	t      *testing.T
	app    *app
	runner *toolstest.Runner
	home   string
	env    map[string]string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	h := &harness{
		t:      t,
		runner: toolstest.New(),
		home:   home,
		env:    map[string]string{"SHELL": "/bin/bash"},
	}
	h.app = &app{
		runner:   h.runner,
		platform: func() platform.Info { return platform.DetectFor("linux", "amd64") },
		layout:   paths.Resolve,
		stdin:    stdinFile(t, ""),
		getenv:   func(k string) string { return h.env[k] },
	}
	return h
}

func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	cmd := newRootCmd(h.app)
	cmd.SetArgs(args)
	cmd.SetOut(&h.stdout)
	cmd.SetErr(&h.stderr)
	cmd.SetIn(strings.NewReader(""))
	return cmd.ExecuteContext(context.Background())
}

func stdinFile(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdin")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeConda answers the conda subcommands a run issues and keeps a registry
// of environment name to manifest.
func fakeConda(root string) (tools.Handler, map[string]string) {
	envs := map[string]string{}
	return func(args []string, opts tools.RunOptions) (tools.RunResult, error) {
		switch {
		case len(args) == 1 && args[0] == "--version":
			return tools.RunResult{Stdout: []byte("conda 23.7.4\n")}, nil
		case len(args) > 0 && (args[0] == "init" || args[0] == "config"):
			return tools.RunResult{}, nil
		case slices.Equal(args, []string{"env", "list", "--json"}):
			list := []string{root}
			for name := range envs {
				list = append(list, filepath.Join(root, "envs", name))
			}
			out, err := json.Marshal(map[string][]string{"envs": list})
			return tools.RunResult{Stdout: out}, err
		case len(args) == 6 && args[1] == "create":
			if err := os.MkdirAll(filepath.Join(root, "envs", args[3]), 0o755); err != nil {
				return tools.RunResult{}, err
			}
			envs[args[3]] = args[5]
			return tools.RunResult{}, nil
		case len(args) == 7 && args[1] == "update":
			if _, ok := envs[args[3]]; !ok {
				return tools.RunResult{}, fmt.Errorf("no environment %s", args[3])
			}
			envs[args[3]] = args[5]
			return tools.RunResult{}, nil
		}
		return tools.RunResult{}, fmt.Errorf("unexpected conda %v", args)
	}, envs
}

func TestHelpHasNoSideEffects(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {"conda", "-h"}, {"venv", "--help"}, {"conda", "--help", "--yes"}} {
		h := newHarness(t)
		if err := h.run(args...); err != nil {
			t.Fatalf("%v: unexpected error %v", args, err)
		}
		if !strings.Contains(h.stdout.String(), "Usage:") {
			t.Errorf("%v: expected usage, got %q", args, h.stdout.String())
		}
		if len(h.runner.Calls) != 0 {
			t.Errorf("%v: help ran commands: %v", args, h.runner.Lines())
		}
		if _, err := os.Stat(filepath.Join(h.home, ".envsetup")); !os.IsNotExist(err) {
			t.Errorf("%v: help created the state directory", args)
		}
	}
}

func TestUnknownFlagIncludesUsage(t *testing.T) {
	h := newHarness(t)
	err := h.run("conda", "--bogus")
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "unknown flag: --bogus") || !strings.Contains(err.Error(), "Usage:") {
		t.Errorf("expected flag error with usage, got %q", err)
	}
	if len(h.runner.Calls) != 0 {
		t.Errorf("flag error ran commands: %v", h.runner.Lines())
	}
}

func TestMissingFlagArgument(t *testing.T) {
	h := newHarness(t)
	err := h.run("venv", "-n")
	if err == nil {
		t.Fatal("expected error for missing argument")
	}
	if !strings.Contains(err.Error(), "flag needs an argument") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestDetectJSON(t *testing.T) {
	h := newHarness(t)
	if err := h.run("detect", "--json"); err != nil {
		t.Fatal(err)
	}

	var report detectReport
	if err := json.Unmarshal(h.stdout.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, h.stdout.String())
	}
	if report.Installer != "Miniconda3-latest-Linux-x86_64.sh" {
		t.Errorf("installer = %q", report.Installer)
	}
	if report.Fetcher != "http" {
		t.Errorf("fetcher = %q, want http without wget", report.Fetcher)
	}
	if report.Conda.Found || report.Python.Found {
		t.Errorf("expected no runtimes, got %+v", report)
	}
	if report.InstallDir != filepath.Join(h.home, "miniconda3") {
		t.Errorf("install dir = %q", report.InstallDir)
	}
	if _, err := os.Stat(filepath.Join(h.home, ".envsetup")); !os.IsNotExist(err) {
		t.Error("detect created the state directory")
	}
}

func TestCondaCreatesThenUpdates(t *testing.T) {
	h := newHarness(t)
	root := filepath.Join(h.home, "miniconda3")
	conda := writeFile(t, filepath.Join(root, "bin", "conda"), "#!/bin/sh\n")
	handler, envs := fakeConda(root)
	h.runner.Install("conda", conda).Handle("conda", handler)
	manifest := writeFile(t, filepath.Join(t.TempDir(), "environment.yml"), "dependencies:\n  - numpy\n")

	if err := h.run("conda", "-s", manifest); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "created") || !strings.Contains(h.stdout.String(), "conda activate clr3") {
		t.Errorf("unexpected first output:\n%s", h.stdout.String())
	}
	if envs["clr3"] != manifest {
		t.Errorf("registry = %v", envs)
	}

	if err := h.run("conda", "-s", manifest); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "updated") {
		t.Errorf("unexpected second output:\n%s", h.stdout.String())
	}

	var creates int
	for _, line := range h.runner.Lines() {
		if strings.HasPrefix(line, "conda env create") {
			creates++
		}
	}
	if creates != 1 {
		t.Errorf("expected a single create, got %d: %v", creates, h.runner.Lines())
	}
}

func TestCondaMissingManifest(t *testing.T) {
	h := newHarness(t)
	root := filepath.Join(h.home, "miniconda3")
	conda := writeFile(t, filepath.Join(root, "bin", "conda"), "#!/bin/sh\n")
	handler, _ := fakeConda(root)
	h.runner.Install("conda", conda).Handle("conda", handler)

	err := h.run("conda", "-n", "clr3", "-s", filepath.Join(t.TempDir(), "missing.yml"))
	if issue.KindOf(err) != issue.KindEnvironmentActionFailed {
		t.Fatalf("expected EnvironmentActionFailed, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "envs", "clr3")); !os.IsNotExist(statErr) {
		t.Error("environment directory was created")
	}
}

func TestCondaBootstrapDeclined(t *testing.T) {
	h := newHarness(t)
	h.app.stdin = stdinFile(t, "n\n")
	manifest := writeFile(t, filepath.Join(t.TempDir(), "environment.yml"), "dependencies: []\n")

	err := h.run("conda", "-s", manifest)
	if issue.KindOf(err) != issue.KindConsentDeclined {
		t.Fatalf("expected ConsentDeclined, got %v", err)
	}
	if !strings.Contains(h.stderr.String(), "[y/N]") {
		t.Errorf("expected consent prompt on stderr, got %q", h.stderr.String())
	}
	if len(h.runner.Calls) != 0 {
		t.Errorf("declined run executed commands: %v", h.runner.Lines())
	}
	if _, statErr := os.Stat(filepath.Join(h.home, "miniconda3")); !os.IsNotExist(statErr) {
		t.Error("install directory was created")
	}
}

func TestCondaBootstrapInstalls(t *testing.T) {
	h := newHarness(t)
	installDir := filepath.Join(t.TempDir(), "mc3")
	manifest := writeFile(t, filepath.Join(t.TempDir(), "environment.yml"), "dependencies: []\n")
	handler, envs := fakeConda(installDir)

	h.runner.Install("wget", "/usr/bin/wget")
	h.runner.Handle("wget", func(args []string, _ tools.RunOptions) (tools.RunResult, error) {
		// -q -O DEST URL
		writeFile(t, args[2], "#!/bin/sh\n")
		return tools.RunResult{}, nil
	})
	h.runner.Handle("bash", func(args []string, _ tools.RunOptions) (tools.RunResult, error) {
		writeFile(t, filepath.Join(args[3], "bin", "conda"), "#!/bin/sh\n")
		return tools.RunResult{}, nil
	})
	h.runner.Handle("conda", handler)

	if err := h.run("conda", "--yes", "--install-dir", installDir, "-s", manifest); err != nil {
		t.Fatalf("run: %v\n%s", err, h.stderr.String())
	}

	lines := h.runner.Lines()
	wantPrefixes := []string{
		"wget -q -O " + filepath.Join(h.home, ".envsetup", "downloads", "download-"),
		"bash " + filepath.Join(h.home, ".envsetup", "downloads", "Miniconda3-latest-Linux-x86_64.sh") + " -b -p " + installDir,
		"conda init bash",
		"conda config --set auto_activate_base false",
		"conda --version",
	}
	for i, want := range wantPrefixes {
		if i >= len(lines) || !strings.HasPrefix(lines[i], want) {
			t.Fatalf("call %d: want prefix %q, got %v", i, want, lines)
		}
	}
	if _, ok := envs["clr3"]; !ok {
		t.Errorf("environment not created: %v", lines)
	}
	if !strings.Contains(h.stdout.String(), "shell.bash hook") {
		t.Errorf("expected shell hook hint, got:\n%s", h.stdout.String())
	}
}

func TestVenvToolchainNotFound(t *testing.T) {
	h := newHarness(t)
	manifest := writeFile(t, filepath.Join(t.TempDir(), "requirements.txt"), "numpy\n")

	err := h.run("venv", "-e", t.TempDir(), "--manifest", manifest)
	if issue.KindOf(err) != issue.KindToolchainNotFound {
		t.Fatalf("expected ToolchainNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "python 3.6 or newer is required") {
		t.Errorf("expected minimum version in message, got %q", err)
	}
}

func venvHarness(t *testing.T, python string) *harness {
	t.Helper()
	h := newHarness(t)
	h.runner.Install(python, "/usr/bin/"+python)
	h.runner.Handle(python, func(args []string, _ tools.RunOptions) (tools.RunResult, error) {
		writeFile(t, filepath.Join(args[2], "pyvenv.cfg"), "home = /usr/bin\n")
		return tools.RunResult{}, nil
	})
	h.runner.Handle("python", func([]string, tools.RunOptions) (tools.RunResult, error) {
		return tools.RunResult{}, nil
	})
	return h
}

func TestVenvWarnsAboutBuildTools(t *testing.T) {
	h := venvHarness(t, "python3.8")
	manifest := writeFile(t, filepath.Join(t.TempDir(), "requirements.txt"), "numpy\n")
	envDir := t.TempDir()

	if err := h.run("venv", "--json", "-e", envDir, "--manifest", manifest); err != nil {
		t.Fatalf("run: %v", err)
	}

	var result provisionResult
	if err := json.Unmarshal(h.stdout.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, h.stdout.String())
	}
	if result.Toolchain.SelectedVersion != "3.8" || result.Toolchain.Source != tools.SourceCandidate {
		t.Errorf("toolchain = %+v", result.Toolchain)
	}
	if result.BuildTools.Skipped || len(result.BuildTools.Checks) != 2 {
		t.Errorf("build tools = %+v", result.BuildTools)
	}
	if result.Environment.Outcome != "created" || result.Environment.Target != filepath.Join(envDir, "clr3") {
		t.Errorf("environment = %+v", result.Environment)
	}
	if !strings.Contains(h.stderr.String(), "warning:") || !strings.Contains(h.stderr.String(), "compiler") {
		t.Errorf("expected build tool warnings, got %q", h.stderr.String())
	}
}

func TestVenvPrebuiltSkipsBuildTools(t *testing.T) {
	h := venvHarness(t, "python3.6")
	manifest := writeFile(t, filepath.Join(t.TempDir(), "requirements.txt"), "numpy\n")

	if err := h.run("venv", "--json", "--env_dir", t.TempDir(), "--manifest", manifest); err != nil {
		t.Fatalf("run: %v", err)
	}
	var result provisionResult
	if err := json.Unmarshal(h.stdout.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.BuildTools.Skipped || len(result.BuildTools.Checks) != 0 {
		t.Errorf("expected skipped build tools, got %+v", result.BuildTools)
	}
	if strings.Contains(h.stderr.String(), "warning:") {
		t.Errorf("unexpected warnings: %q", h.stderr.String())
	}
}

func TestVenvUnknownPlatformWarnsAndContinues(t *testing.T) {
	h := venvHarness(t, "python3.6")
	h.app.platform = func() platform.Info { return platform.DetectFor("plan9", "amd64") }
	manifest := writeFile(t, filepath.Join(t.TempDir(), "requirements.txt"), "numpy\n")

	if err := h.run("venv", "--json", "-e", t.TempDir(), "--manifest", manifest); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(h.stderr.String(), "unrecognized operating system") {
		t.Errorf("expected a platform warning, got %q", h.stderr.String())
	}
	var result provisionResult
	if err := json.Unmarshal(h.stdout.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, h.stdout.String())
	}
	if result.Environment.Outcome != "created" {
		t.Errorf("environment = %+v", result.Environment)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	h := newHarness(t)
	if err := h.run("config", "init"); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(h.home, ".config", "envsetup", "config.yaml")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if err := h.run("config", "init"); err == nil {
		t.Error("expected error when config exists")
	}
	if err := h.run("config", "init", "--force"); err != nil {
		t.Errorf("force: %v", err)
	}

	writeFile(t, target, "conda:\n  env_name: analysis\n")
	if err := h.run("config", "show"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(h.stdout.String(), "env_name: analysis") || !strings.Contains(h.stdout.String(), "env_dir: ../venvs") {
		t.Errorf("unexpected config:\n%s", h.stdout.String())
	}
}

func TestConfigFlagMissingFile(t *testing.T) {
	h := newHarness(t)
	err := h.run("--config", filepath.Join(t.TempDir(), "nope.yaml"), "config", "show")
	if err == nil || !strings.Contains(err.Error(), "envsetup config init") {
		t.Errorf("expected actionable error, got %v", err)
	}
}

func TestDoctorJSON(t *testing.T) {
	h := venvHarness(t, "python3.6")
	if err := h.run("doctor", "--json"); err != nil {
		t.Fatal(err)
	}
	var checks []healthCheck
	if err := json.Unmarshal(h.stdout.Bytes(), &checks); err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, c := range checks {
		got[c.Name] = c.Status
	}
	want := map[string]string{
		"Platform":    "ok",
		"Config":      "ok",
		"Conda":       "warning",
		"Python":      "ok",
		"Build tools": "ok",
		"Transfer":    "ok",
	}
	for name, status := range want {
		if got[name] != status {
			t.Errorf("%s = %q, want %q (all: %v)", name, got[name], status, got)
		}
	}
}

func TestTransitionRows(t *testing.T) {
	tests := []struct {
		from, to bootstrap.State
		want     []string
	}{
		{bootstrap.StateNotInstalled, bootstrap.StateAwaitingConsent, nil},
		{bootstrap.StateAwaitingConsent, bootstrap.StateDownloading, []string{"download=downloading"}},
		{bootstrap.StateDownloading, bootstrap.StateInstalling, []string{"download=downloaded", "install=installing"}},
		{bootstrap.StateInstalling, bootstrap.StateInstalled, []string{"install=installed"}},
		{bootstrap.StateAwaitingConsent, bootstrap.StateDeclined, []string{"download=declined", "install=skipped"}},
		{bootstrap.StateDeclined, bootstrap.StateAbort, nil},
		{bootstrap.StateDownloading, bootstrap.StateAbort, []string{"download=failed"}},
		{bootstrap.StateInstalling, bootstrap.StateAbort, []string{"install=failed"}},
	}
	for _, tt := range tests {
		var got []string
		for _, msg := range transitionRows(tt.from, tt.to) {
			got = append(got, msg.Key+"="+msg.Fields["STATUS"])
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSplitEditorCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"vi", []string{"vi"}},
		{"code -w", []string{"code", "-w"}},
		{"'/Applications/My Editor' -w", []string{"/Applications/My Editor", "-w"}},
	}
	for _, tt := range tests {
		if got := splitEditorCommand(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitEditorCommand(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

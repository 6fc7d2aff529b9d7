package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"envsetup/internal/bootstrap"
	"envsetup/internal/envmgr"
	"envsetup/internal/issue"
	"envsetup/internal/logx"
	"envsetup/internal/platform"
	"envsetup/internal/tools"
	"envsetup/internal/tui"
)

type environmentResult struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Manifest string `json:"manifest"`
	Target   string `json:"target"`
	Outcome  string `json:"outcome"`
}

// provisionResult is what conda and venv report when they finish.
type provisionResult struct {
	Platform    platform.Info          `json:"platform"`
	Bootstrap   *bootstrap.Result      `json:"bootstrap,omitempty"`
	Toolchain   tools.ToolchainBinding `json:"toolchain"`
	BuildTools  tools.BuildToolReport  `json:"build_tools"`
	Environment environmentResult      `json:"environment"`
	Activate    string                 `json:"activate"`
	Log         string                 `json:"log,omitempty"`
}

// progressWriter is where stage lines go; JSON output keeps stdout clean.
func (a *app) progressWriter(cmd *cobra.Command) io.Writer {
	if a.outputJSON {
		return io.Discard
	}
	return cmd.OutOrStdout()
}

func (a *app) detectPlatform(cmd *cobra.Command, sess *session) platform.Info {
	info := a.platform()
	sess.logger.Info("platform", "os", info.OSFamily, "bits", info.BitWidth, "machine", info.Machine)
	if !info.Known() {
		warnAll(cmd.ErrOrStderr(), sess.logger, []error{
			issue.New(issue.KindPlatformUnknown, "detect platform", errors.New("unrecognized operating system")).
				WithSuggestion("Continuing with %s defaults; installer names may not resolve", info),
		})
	}
	stage(a.progressWriter(cmd), "ok", "platform", info.String())
	return info
}

func (a *app) negotiate(cmd *cobra.Command, sess *session, req tools.VersionRequirement) (tools.ToolchainBinding, error) {
	binding, attempts, err := tools.Negotiate(cmd.Context(), a.runner, req)
	for _, at := range attempts {
		sess.logger.Debug("negotiate", "tool", req.Tool, "name", at.Name, "path", at.Path, "version", at.Version, "reason", at.Reason)
	}
	if err != nil {
		stage(a.progressWriter(cmd), "missing", req.Tool, "")
		sess.logger.Error("negotiate failed", "tool", req.Tool, "err", err)
		return tools.ToolchainBinding{}, err
	}
	sess.logger.Info("negotiated", "tool", binding.Tool, "version", binding.SelectedVersion, "path", binding.ExecutablePath, "source", binding.Source)
	stage(a.progressWriter(cmd), "ok", req.Tool, fmt.Sprintf("%s %s", binding.ExecutablePath, binding.SelectedVersion))
	return binding, nil
}

func (a *app) checkBuildTools(cmd *cobra.Command, sess *session, binding tools.ToolchainBinding, prebuilt, required []string) tools.BuildToolReport {
	report := tools.CheckBuildTools(a.runner, binding, prebuilt, required)
	w := a.progressWriter(cmd)
	switch {
	case report.Skipped:
		stage(w, "skipped", "build tools", fmt.Sprintf("prebuilt packages for %s %s", binding.Tool, binding.SelectedVersion))
	case len(report.Checks) == 0:
		stage(w, "skipped", "build tools", "none required")
	case report.OK():
		stage(w, "ok", "build tools", fmt.Sprintf("%d found", len(report.Checks)))
	default:
		stage(w, "warning", "build tools", fmt.Sprintf("%d of %d missing", len(report.Warnings), len(report.Checks)))
	}
	warnAll(cmd.ErrOrStderr(), sess.logger, report.Warnings)
	return report
}

// ensureEnvironment runs envmgr.Ensure behind a status spinner on a
// terminal, or with plain stage lines otherwise.
func (a *app) ensureEnvironment(cmd *cobra.Command, sess *session, mgr envmgr.Manager, spec envmgr.Spec) (environmentResult, error) {
	res := environmentResult{
		Kind:     mgr.Kind(),
		Name:     spec.Name,
		Manifest: spec.ManifestPath,
		Target:   mgr.Target(spec),
	}
	w := a.progressWriter(cmd)

	var sw *tui.StatusWriter
	if sess.mode == tui.ModeTUI {
		sw = tui.NewStatusWriter(w)
		sw.Update(fmt.Sprintf("converging %s environment %s to %s", mgr.Kind(), spec.Name, filepath.Base(spec.ManifestPath)))
	} else {
		stage(w, "checking", "environment", spec.Name)
	}

	outcome, err := envmgr.Ensure(cmd.Context(), mgr, spec, sess.logger)
	if err != nil {
		if sw != nil {
			sw.Finish("failed", "environment "+spec.Name)
		} else {
			stage(w, "failed", "environment", spec.Name)
		}
		return res, err
	}

	res.Outcome = outcome.String()
	if sw != nil {
		sw.Finish(res.Outcome, fmt.Sprintf("environment %s at %s", spec.Name, res.Target))
	} else {
		stage(w, res.Outcome, "environment", res.Target)
	}
	return res, nil
}

func (a *app) writeResult(cmd *cobra.Command, sess *session, result provisionResult) error {
	result.Log = logx.Path(sess.closer)
	sess.logger.Info("done", "environment", result.Environment.Name, "outcome", result.Environment.Outcome)

	out := cmd.OutOrStdout()
	if a.outputJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "To activate this environment, use")
	fmt.Fprintln(out, "  "+tui.HintStyle.Render(result.Activate))
	if result.Bootstrap != nil {
		fmt.Fprintln(out, "To use conda in this shell without opening a new one, run")
		fmt.Fprintln(out, "  "+tui.HintStyle.Render(bootstrap.ShellHookHint(result.Bootstrap.CondaPath, result.Bootstrap.Shell)))
	}
	if result.Log != "" {
		fmt.Fprintln(out, tui.StatusStyle("pending").Render("log: "+result.Log))
	}
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

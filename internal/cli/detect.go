package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"envsetup/internal/bootstrap"
	"envsetup/internal/platform"
	"envsetup/internal/tools"
	"envsetup/internal/tui"
)

type runtimeReport struct {
	Found    bool                   `json:"found"`
	Binding  tools.ToolchainBinding `json:"binding"`
	Attempts []tools.Attempt        `json:"attempts,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

type detectReport struct {
	Platform     platform.Info `json:"platform"`
	Installer    string        `json:"installer"`
	InstallerURL string        `json:"installer_url"`
	InstallDir   string        `json:"install_dir"`
	Fetcher      string        `json:"fetcher"`
	Shell        string        `json:"shell"`
	Conda        runtimeReport `json:"conda"`
	Python       runtimeReport `json:"python"`
}

func newDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Show the platform, installer and runtimes envsetup would use",
		Long: `Show what a conda or venv run would resolve on this host without
installing, creating or writing anything.`,
		Args: cobra.NoArgs,
		RunE: a.runDetect,
	}
}

func (a *app) runDetect(cmd *cobra.Command, _ []string) error {
	cfg, _, layout, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	info := a.platform()

	template := firstNonEmpty(cfg.Conda.InstallerURL, bootstrap.DefaultURLTemplate)
	name := firstNonEmpty(cfg.Conda.InstallerName, "Miniconda3")
	report := detectReport{
		Platform:     info,
		Installer:    bootstrap.ArtifactName(template, name, info),
		InstallerURL: bootstrap.RenderURL(template, name, info),
		InstallDir:   layout.InstallDir,
		Fetcher:      bootstrap.SelectFetcher(a.runner, info, nil).Name(),
		Shell:        bootstrap.DetectShell(a.getenv("SHELL"), info),
	}

	if conda, ok := a.resolveConda(info, layout.InstallDir); ok {
		report.Conda = a.probeRuntime(cmd, tools.VersionRequirement{Tool: "conda", Generic: conda, Minimum: cfg.Conda.Minimum})
	} else {
		report.Conda = runtimeReport{Error: "not found on PATH or in " + layout.InstallDir}
	}
	report.Python = a.probeRuntime(cmd, tools.VersionRequirement{
		Tool:       "python",
		Executable: cfg.Venv.Executable,
		Candidates: cfg.Venv.Candidates,
		Generic:    cfg.Venv.Generic,
		Minimum:    cfg.Venv.Minimum,
	})

	out := cmd.OutOrStdout()
	if a.outputJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	label := tui.HeaderStyle
	fmt.Fprintf(out, "%s %s\n", label.Render("Platform:    "), report.Platform)
	fmt.Fprintf(out, "%s %s\n", label.Render("Installer:   "), report.Installer)
	fmt.Fprintf(out, "%s %s\n", label.Render("URL:         "), report.InstallerURL)
	fmt.Fprintf(out, "%s %s\n", label.Render("Install dir: "), report.InstallDir)
	fmt.Fprintf(out, "%s %s\n", label.Render("Fetcher:     "), report.Fetcher)
	fmt.Fprintf(out, "%s %s\n", label.Render("Shell:       "), report.Shell)
	fmt.Fprintf(out, "%s %s\n", label.Render("conda:       "), describeRuntime(report.Conda))
	fmt.Fprintf(out, "%s %s\n", label.Render("python:      "), describeRuntime(report.Python))
	return nil
}

func (a *app) probeRuntime(cmd *cobra.Command, req tools.VersionRequirement) runtimeReport {
	binding, attempts, err := tools.Negotiate(cmd.Context(), a.runner, req)
	if err != nil {
		return runtimeReport{Attempts: attempts, Error: err.Error()}
	}
	return runtimeReport{Found: true, Binding: binding, Attempts: attempts}
}

func describeRuntime(r runtimeReport) string {
	if !r.Found {
		return tui.StatusStyle("missing").Render("missing") + "  " + r.Error
	}
	return fmt.Sprintf("%s  %s %s (%s)", tui.StatusStyle("ok").Render("ok"),
		r.Binding.ExecutablePath, r.Binding.SelectedVersion, r.Binding.Source)
}

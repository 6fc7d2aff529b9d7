package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"envsetup/internal/config"
	"envsetup/internal/paths"
	"envsetup/internal/platform"
	"envsetup/internal/tools"
)

func newDoctorCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check whether this host can provision an environment",
		Args:  cobra.NoArgs,
		RunE:  a.runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func (a *app) runDoctor(cmd *cobra.Command, _ []string) error {
	var checks []healthCheck

	info := a.platform()
	checks = append(checks, checkPlatform(info))

	cfg, cfgPath, layout, cfgErr := a.loadConfig(cmd)
	checks = append(checks, checkConfig(cfgPath, cfg, cfgErr))
	if cfgErr != nil {
		// Later checks depend on configured names and floors.
		return a.writeDoctorResult(cmd, checks)
	}

	checks = append(checks, a.checkConda(cmd, info, layout, cfg))
	python, pythonCheck := a.checkPython(cmd, cfg)
	checks = append(checks, pythonCheck)
	if python != nil {
		checks = append(checks, checkBuildToolsHealth(tools.CheckBuildTools(a.runner, *python, cfg.Venv.Prebuilt, cfg.Venv.BuildTools)))
	}
	checks = append(checks, a.checkTransfer(cmd))

	return a.writeDoctorResult(cmd, checks)
}

func checkPlatform(info platform.Info) healthCheck {
	if !info.Known() {
		return healthCheck{Name: "Platform", Status: "warning", Summary: info.String() + "; installer names may not resolve"}
	}
	return healthCheck{Name: "Platform", Status: "ok", Summary: info.String()}
}

func checkConfig(cfgPath string, cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	source := "defaults"
	if cfgPath != "" {
		source = cfgPath
	}

	var warnings, errors int
	for _, v := range cfg.Validate() {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errors++
		}
	}
	if errors > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%s; %d errors", source, errors)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", source, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: source}
}

func (a *app) checkConda(cmd *cobra.Command, info platform.Info, layout paths.Layout, cfg config.Config) healthCheck {
	conda, ok := a.resolveConda(info, layout.InstallDir)
	if !ok {
		return healthCheck{Name: "Conda", Status: "warning", Summary: "not installed; 'envsetup conda' will offer to install it into " + layout.InstallDir}
	}
	binding, _, err := tools.Negotiate(cmd.Context(), a.runner, tools.VersionRequirement{Tool: "conda", Generic: conda, Minimum: cfg.Conda.Minimum})
	if err != nil {
		return healthCheck{Name: "Conda", Status: "error", Summary: err.Error()}
	}
	return healthCheck{Name: "Conda", Status: "ok", Summary: binding.ExecutablePath + " " + binding.SelectedVersion}
}

func (a *app) checkPython(cmd *cobra.Command, cfg config.Config) (*tools.ToolchainBinding, healthCheck) {
	binding, _, err := tools.Negotiate(cmd.Context(), a.runner, tools.VersionRequirement{
		Tool:       "python",
		Executable: cfg.Venv.Executable,
		Candidates: cfg.Venv.Candidates,
		Generic:    cfg.Venv.Generic,
		Minimum:    cfg.Venv.Minimum,
	})
	if err != nil {
		return nil, healthCheck{Name: "Python", Status: "error", Summary: fmt.Sprintf("no python %s or newer", cfg.Venv.Minimum)}
	}
	return &binding, healthCheck{
		Name:    "Python",
		Status:  "ok",
		Summary: fmt.Sprintf("%s %s (%s)", binding.ExecutablePath, binding.SelectedVersion, binding.Source),
	}
}

func checkBuildToolsHealth(report tools.BuildToolReport) healthCheck {
	if report.Skipped {
		return healthCheck{Name: "Build tools", Status: "ok", Summary: "not needed; prebuilt packages available"}
	}
	if len(report.Checks) == 0 {
		return healthCheck{Name: "Build tools", Status: "ok", Summary: "none required"}
	}
	var found, missing []string
	for _, c := range report.Checks {
		if c.Available {
			found = append(found, c.Tool)
		} else {
			missing = append(missing, c.Tool)
		}
	}
	if len(missing) == 0 {
		return healthCheck{Name: "Build tools", Status: "ok", Summary: joinComma(found)}
	}
	return healthCheck{Name: "Build tools", Status: "warning", Summary: "missing " + joinComma(missing)}
}

func (a *app) checkTransfer(cmd *cobra.Command) healthCheck {
	var available []string
	for _, t := range tools.Probe(cmd.Context(), a.runner, []string{"curl", "wget"}, false) {
		if t.Available {
			available = append(available, t.Name)
		}
	}
	if len(available) == 0 {
		return healthCheck{Name: "Transfer", Status: "ok", Summary: "built-in HTTP client"}
	}
	return healthCheck{Name: "Transfer", Status: "ok", Summary: joinComma(available)}
}

func (a *app) writeDoctorResult(cmd *cobra.Command, checks []healthCheck) error {
	if a.outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("HOST HEALTH:"))

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-13s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}

	return nil
}

func joinComma(items []string) string {
	return strings.Join(items, ", ")
}

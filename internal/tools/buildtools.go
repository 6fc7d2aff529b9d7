package tools

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"envsetup/internal/issue"
)

// BuildToolCheck is the outcome of one build tool lookup.
type BuildToolCheck struct {
	Tool      string `json:"tool"`
	Path      string `json:"path,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// BuildToolReport collects the checks made for a binding. Warnings holds one
// BuildToolMissing error per missing tool; it never aborts the run.
type BuildToolReport struct {
	Skipped  bool             `json:"skipped"`
	Checks   []BuildToolCheck `json:"checks,omitempty"`
	Warnings []error          `json:"-"`
}

// OK reports whether no warnings were raised.
func (r BuildToolReport) OK() bool {
	return len(r.Warnings) == 0
}

// CheckBuildTools verifies the tools named in required unless the bound
// version ships prebuilt artifacts, in which case nothing is checked.
func CheckBuildTools(runner Runner, binding ToolchainBinding, prebuilt []string, required []string) BuildToolReport {
	if slices.Contains(prebuilt, binding.SelectedVersion) {
		return BuildToolReport{Skipped: true}
	}

	var report BuildToolReport
	for _, name := range required {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		check := checkOne(runner, name)
		report.Checks = append(report.Checks, check)
		if check.Available {
			continue
		}
		warn := issue.New(issue.KindBuildToolMissing, "check build tools", errors.New(check.Error)).
			WithResource(name).
			WithSuggestion("building dependencies from source for %s %s may fail", binding.Tool, binding.SelectedVersion)
		for _, hint := range installHints(name) {
			warn.WithSuggestion("%s", hint)
		}
		report.Warnings = append(report.Warnings, warn)
	}
	return report
}

func checkOne(runner Runner, name string) BuildToolCheck {
	def, ok := BuildToolDefinition(name)
	if !ok {
		def = BuildTool{Name: name, Executables: []string{name}}
	}
	for _, exe := range def.Executables {
		if path, err := runner.LookPath(executableName(exe)); err == nil {
			return BuildToolCheck{Tool: name, Path: path, Available: true}
		}
	}
	return BuildToolCheck{
		Tool:  name,
		Error: fmt.Sprintf("none of %s found on PATH", strings.Join(def.Executables, ", ")),
	}
}

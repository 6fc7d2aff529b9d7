package config

import (
	"fmt"
	"slices"
	"strings"

	version "github.com/hashicorp/go-version"

	"envsetup/internal/tools"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks values that the loader cannot: placeholders, version
// floors and build tool names.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateNames()...)
	results = append(results, c.validateInstaller()...)
	results = append(results, validateMinimum("conda.minimum", c.Conda.Minimum)...)
	results = append(results, validateMinimum("venv.minimum", c.Venv.Minimum)...)
	results = append(results, validateBuildTools("conda.build_tools", c.Conda.BuildTools)...)
	results = append(results, validateBuildTools("venv.build_tools", c.Venv.BuildTools)...)
	results = append(results, c.validateVenvRuntime()...)
	return results
}

// HasErrors reports whether any result has level "error".
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}

func (c Config) validateNames() []ValidationResult {
	var results []ValidationResult
	for key, name := range map[string]string{"conda.env_name": c.Conda.EnvName, "venv.env_name": c.Venv.EnvName} {
		if strings.ContainsAny(name, `/\`) {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s %q must not contain path separators", key, name),
			})
		}
	}
	slices.SortFunc(results, func(a, b ValidationResult) int { return strings.Compare(a.Message, b.Message) })
	return results
}

func (c Config) validateInstaller() []ValidationResult {
	var results []ValidationResult
	if strings.TrimSpace(c.Conda.InstallerURL) == "" {
		return []ValidationResult{{Level: "error", Message: "conda.installer_url is empty"}}
	}
	for _, placeholder := range []string{"{os}", "{arch}", "{ext}"} {
		if !strings.Contains(c.Conda.InstallerURL, placeholder) {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("conda.installer_url has no %s placeholder; the same artifact is used on every platform", placeholder),
			})
		}
	}
	return results
}

func validateMinimum(key, value string) []ValidationResult {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if _, err := version.NewVersion(value); err != nil {
		return []ValidationResult{{Level: "error", Message: fmt.Sprintf("%s %q is not a version: %v", key, value, err)}}
	}
	return nil
}

func validateBuildTools(key string, names []string) []ValidationResult {
	var results []ValidationResult
	known := tools.KnownBuildTools()
	for _, name := range names {
		if !slices.Contains(known, name) {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("%s entry %q is not a known build tool (%s); it is looked up as an executable", key, name, strings.Join(known, ", ")),
			})
		}
	}
	return results
}

func (c Config) validateVenvRuntime() []ValidationResult {
	if len(c.Venv.Candidates) == 0 && strings.TrimSpace(c.Venv.Generic) == "" {
		return []ValidationResult{{Level: "error", Message: "venv.candidates and venv.generic are both empty; no Python can be negotiated"}}
	}
	return nil
}

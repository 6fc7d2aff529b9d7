package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"envsetup/internal/issue"
)

// Negotiate resolves req to an installed runtime. Pinned candidates are
// accepted as soon as they resolve on the search path; the generic
// executable must also report a version at or above req.Minimum.
func Negotiate(ctx context.Context, runner Runner, req VersionRequirement) (ToolchainBinding, []Attempt, error) {
	var attempts []Attempt

	for _, candidate := range req.Candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		name := executableName(req.Executable + candidate)
		path, err := runner.LookPath(name)
		if err != nil {
			attempts = append(attempts, Attempt{Name: name, Reason: "not found"})
			continue
		}
		attempts = append(attempts, Attempt{Name: name, Path: path, Version: candidate})
		return ToolchainBinding{
			Tool:            req.Tool,
			SelectedVersion: candidate,
			ExecutablePath:  path,
			Source:          SourceCandidate,
		}, attempts, nil
	}

	if req.Generic != "" {
		binding, attempt, err := negotiateGeneric(ctx, runner, req)
		attempts = append(attempts, attempt)
		if err == nil {
			return binding, attempts, nil
		}
	}

	return ToolchainBinding{}, attempts, notFound(req, attempts)
}

func negotiateGeneric(ctx context.Context, runner Runner, req VersionRequirement) (ToolchainBinding, Attempt, error) {
	name := req.Generic
	if !strings.ContainsAny(name, `/\`) {
		name = executableName(name)
	}
	attempt := Attempt{Name: name}

	path, err := runner.LookPath(name)
	if err != nil {
		attempt.Reason = "not found"
		return ToolchainBinding{}, attempt, err
	}
	attempt.Path = path

	v, banner, err := readVersion(ctx, runner, path)
	if err != nil {
		attempt.Reason = err.Error()
		return ToolchainBinding{}, attempt, err
	}
	attempt.Version = v.String()

	if !MeetsMinimum(v, req.Minimum) {
		attempt.Reason = fmt.Sprintf("version %s below minimum %s", MajorMinor(v), req.Minimum)
		return ToolchainBinding{}, attempt, errors.New(attempt.Reason)
	}

	return ToolchainBinding{
		Tool:            req.Tool,
		SelectedVersion: MajorMinor(v),
		ExecutablePath:  path,
		Source:          SourceGeneric,
		Banner:          banner,
	}, attempt, nil
}

func notFound(req VersionRequirement, attempts []Attempt) error {
	var tried []string
	for _, a := range attempts {
		if a.Reason != "" {
			tried = append(tried, fmt.Sprintf("%s (%s)", a.Name, a.Reason))
		}
	}
	cause := "no candidate resolved"
	if len(tried) > 0 {
		cause = "tried " + strings.Join(tried, ", ")
	}

	err := issue.New(issue.KindToolchainNotFound, "negotiate "+req.Tool, errors.New(cause))
	if req.Minimum != "" {
		err.WithSuggestion("%s %s or newer is required; environment setup will not run", req.Tool, req.Minimum)
	} else {
		err.WithSuggestion("%s is required; environment setup will not run", req.Tool)
	}
	for _, hint := range installHints(req.Tool) {
		err.WithSuggestion("%s", hint)
	}
	return err
}

package tools

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// ToolInfo captures availability and version details for an external tool.
type ToolInfo struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Probe discovers availability of the named helper programs (transfer tools,
// shells). Versions are read only when withVersion is set.
func Probe(ctx context.Context, runner Runner, names []string, withVersion bool) []ToolInfo {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	result := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		result = append(result, probeOne(ctx, runner, name, withVersion))
	}
	return result
}

func probeOne(ctx context.Context, runner Runner, name string, withVersion bool) ToolInfo {
	path, err := runner.LookPath(executableName(name))
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ToolInfo{Name: name, Available: false, Error: "not found"}
		}
		return ToolInfo{Name: name, Available: false, Error: err.Error()}
	}
	if !withVersion {
		return ToolInfo{Name: name, Path: path, Available: true}
	}

	v, banner, err := readVersion(ctx, runner, path)
	if err != nil {
		return ToolInfo{Name: name, Path: path, Version: banner, Available: true, Error: err.Error()}
	}
	return ToolInfo{Name: name, Path: path, Version: v.String(), Available: true}
}

package envmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"envsetup/internal/tools"
)

// Registry is one read of "conda env list --json".
type Registry struct {
	Envs       []string `json:"envs"`
	RootPrefix string   `json:"-"`
}

// Lookup returns the prefix registered for name. Matching is on the whole
// directory name, so "clr3" never matches "clr3-old". "base" resolves to
// the root prefix.
func (r Registry) Lookup(name string) (string, bool) {
	if name == "base" && r.RootPrefix != "" {
		for _, prefix := range r.Envs {
			if samePath(prefix, r.RootPrefix) {
				return prefix, true
			}
		}
	}
	for _, prefix := range r.Envs {
		if samePath(prefix, r.RootPrefix) {
			continue
		}
		if baseName(prefix) == name {
			return prefix, true
		}
	}
	return "", false
}

// ReadRegistry queries conda for its registered environments.
func ReadRegistry(ctx context.Context, runner tools.Runner, conda string) (Registry, error) {
	res, err := runner.Run(ctx, conda, []string{"env", "list", "--json"}, tools.RunOptions{})
	if err != nil {
		return Registry{}, fmt.Errorf("conda env list: %w", withStderr(err, res.Stderr))
	}
	var reg Registry
	if err := json.Unmarshal(res.Stdout, &reg); err != nil {
		return Registry{}, fmt.Errorf("parse conda env list: %w", err)
	}
	reg.RootPrefix = RootPrefix(conda)
	return reg, nil
}

// RootPrefix derives the install prefix from the conda executable path
// (<prefix>/bin/conda or <prefix>\Scripts\conda.exe).
func RootPrefix(conda string) string {
	if !strings.ContainsAny(conda, `/\`) {
		return ""
	}
	return filepath.Dir(filepath.Dir(conda))
}

func baseName(p string) string {
	p = strings.TrimRight(strings.ReplaceAll(p, `\`, "/"), "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func withStderr(err error, stderr []byte) error {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	tail := strings.TrimSpace(strings.Join(lines, "\n"))
	if tail == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, tail)
}

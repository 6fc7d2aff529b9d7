// Package toolstest provides an in-memory tools.Runner for tests.
package toolstest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"envsetup/internal/tools"
)

// Call records one Run invocation.
type Call struct {
	Command string
	Args    []string
	Env     []string
}

// Line renders the call as "base arg1 arg2".
func (c Call) Line() string {
	return strings.TrimSpace(Base(c.Command) + " " + strings.Join(c.Args, " "))
}

// Handler answers a Run for one command base name.
type Handler func(args []string, opts tools.RunOptions) (tools.RunResult, error)

// Runner resolves names from Paths, or absolute paths of regular files on
// disk, and dispatches Run calls to Handlers keyed by the command's base
// name (without .exe).
type Runner struct {
	mu       sync.Mutex
	Paths    map[string]string
	Handlers map[string]Handler
	Calls    []Call
}

func New() *Runner {
	return &Runner{Paths: map[string]string{}, Handlers: map[string]Handler{}}
}

// Install makes name resolvable at path.
func (r *Runner) Install(name, path string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Paths[name] = path
	return r
}

// Handle registers h for command base name.
func (r *Runner) Handle(name string, h Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Handlers[name] = h
	return r
}

// Version registers a handler that prints banner for --version.
func (r *Runner) Version(name, banner string) *Runner {
	return r.Handle(name, func(args []string, _ tools.RunOptions) (tools.RunResult, error) {
		if len(args) == 1 && args[0] == "--version" {
			return tools.RunResult{Stdout: []byte(banner + "\n")}, nil
		}
		return tools.RunResult{}, nil
	})
}

func (r *Runner) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.Paths[name]; ok {
		return p, nil
	}
	if p, ok := r.Paths[strings.TrimSuffix(name, ".exe")]; ok {
		return p, nil
	}
	if filepath.IsAbs(name) {
		for _, p := range r.Paths {
			if p == name {
				return p, nil
			}
		}
		if info, err := os.Stat(name); err == nil && info.Mode().IsRegular() {
			return name, nil
		}
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

func (r *Runner) Run(_ context.Context, command string, args []string, opts tools.RunOptions) (tools.RunResult, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, Call{Command: command, Args: append([]string(nil), args...), Env: opts.Env})
	h, ok := r.Handlers[Base(command)]
	r.mu.Unlock()
	if !ok {
		return tools.RunResult{}, fmt.Errorf("fake runner: no handler for %s", command)
	}
	return h(args, opts)
}

// Lines returns every recorded call rendered with Call.Line.
func (r *Runner) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, c.Line())
	}
	return out
}

// Base strips directories and a .exe suffix from command.
func Base(command string) string {
	base := filepath.Base(strings.ReplaceAll(command, `\`, "/"))
	return strings.TrimSuffix(base, ".exe")
}

var _ tools.Runner = (*Runner)(nil)

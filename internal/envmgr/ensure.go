package envmgr

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"envsetup/internal/issue"
	"envsetup/internal/logx"
)

// Manager is the handle to one kind of environment registry.
type Manager interface {
	// Kind names the registry ("conda", "venv").
	Kind() string
	// Probe queries the registry for name. It never caches.
	Probe(ctx context.Context, spec Spec) (State, error)
	// Preflight runs before Create and fails with EnvironmentCollision when
	// something unregistered already occupies the target.
	Preflight(ctx context.Context, spec Spec) error
	Create(ctx context.Context, spec Spec) error
	Update(ctx context.Context, spec Spec) error
	// Target is the on-disk location of the environment.
	Target(spec Spec) string
}

// Ensure converges the environment named by spec to its manifest: Absent
// environments are created, Present ones updated in place. The registry is
// probed again afterwards and an Absent result is fatal.
func Ensure(ctx context.Context, m Manager, spec Spec, logger *log.Logger) (Outcome, error) {
	if logger == nil {
		logger = logx.Discard()
	}
	if err := Validate(spec); err != nil {
		return 0, err
	}

	state, err := m.Probe(ctx, spec)
	if err != nil {
		return 0, issue.New(issue.KindEnvironmentActionFailed, "query "+m.Kind()+" environments", err).
			WithResource(spec.Name)
	}
	logger.Info("probe", "kind", m.Kind(), "name", spec.Name, "state", state)

	var outcome Outcome
	switch state {
	case Absent:
		if err := m.Preflight(ctx, spec); err != nil {
			return 0, err
		}
		if err := m.Create(ctx, spec); err != nil {
			return 0, actionFailed("create", m, spec, err)
		}
		outcome = Created
	case Present:
		if err := m.Update(ctx, spec); err != nil {
			return 0, actionFailed("update", m, spec, err)
		}
		outcome = Updated
	}

	after, err := m.Probe(ctx, spec)
	if err != nil {
		return 0, issue.New(issue.KindPostActionVerificationFailed, "verify "+m.Kind()+" environment", err).
			WithResource(spec.Name)
	}
	if after != Present {
		return 0, issue.New(issue.KindPostActionVerificationFailed, "verify "+m.Kind()+" environment",
			errors.New("environment is still absent after "+outcome.String())).
			WithResource(spec.Name).
			WithSuggestion("Inspect %s and the run log; the package manager reported success", m.Target(spec))
	}
	logger.Info("ensured", "kind", m.Kind(), "name", spec.Name, "outcome", outcome)
	return outcome, nil
}

func actionFailed(verb string, m Manager, spec Spec, err error) error {
	var ie *issue.Error
	if errors.As(err, &ie) {
		return err
	}
	return issue.New(issue.KindEnvironmentActionFailed, verb+" "+m.Kind()+" environment", err).
		WithResource(spec.Name).
		WithSuggestion("See the run log for the full %s output", m.Kind())
}

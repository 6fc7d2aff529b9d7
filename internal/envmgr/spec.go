// Package envmgr creates or updates a named environment from a manifest.
// Every decision is made on a fresh probe of the package manager's state.
package envmgr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"envsetup/internal/issue"
)

// State is the probed presence of an environment.
type State int

const (
	Absent State = iota
	Present
)

func (s State) String() string {
	if s == Present {
		return "present"
	}
	return "absent"
}

// Outcome is the action Ensure took.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "none"
	}
}

// Spec names the environment to converge.
type Spec struct {
	Name         string `json:"name" validate:"required,envname"`
	ManifestPath string `json:"manifest_path" validate:"required,file"`
	// RootDirectory holds the environment: the conda install prefix or the
	// venv parent directory.
	RootDirectory string `json:"root_directory"`
}

var specValidate *validator.Validate

func init() {
	specValidate = validator.New(validator.WithRequiredStructEnabled())
	_ = specValidate.RegisterValidation("envname", validateEnvName)
}

func validateEnvName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// Validate checks spec before anything touches the registry. A missing
// manifest is reported as EnvironmentActionFailed.
func Validate(spec Spec) error {
	err := specValidate.Struct(spec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate environment spec: %w", err)
	}

	first := verrs[0]
	e := issue.New(issue.KindEnvironmentActionFailed, "validate environment", describeFieldError(first, spec))
	switch first.Field() {
	case "ManifestPath":
		e.WithResource(spec.ManifestPath).
			WithSuggestion("Pass the manifest path with -s/--manifest or run from the directory that contains it").
			WithSuggestion("No environment will be created or updated")
	case "Name":
		e.WithResource(spec.Name).
			WithSuggestion("Use a plain environment name such as clr3")
	}
	return e
}

func describeFieldError(fe validator.FieldError, spec Spec) error {
	switch fe.Field() + "." + fe.Tag() {
	case "ManifestPath.required":
		return errors.New("manifest path is empty")
	case "ManifestPath.file":
		return fmt.Errorf("manifest %s does not exist or is not a file", spec.ManifestPath)
	case "Name.required":
		return errors.New("environment name is empty")
	case "Name.envname":
		return fmt.Errorf("environment name %q must not contain path separators", spec.Name)
	}
	return fmt.Errorf("%s failed %s", fe.Field(), fe.Tag())
}

// Package issue defines the error taxonomy shared by the provisioning stages.
// Fatal kinds end the run with exit code 1; warning kinds are reported and
// the run continues.
package issue

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provisioning failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlatformUnknown
	KindToolchainNotFound
	KindBuildToolMissing
	KindConsentDeclined
	KindTransferFailed
	KindInstallFailed
	KindEnvironmentCollision
	KindEnvironmentActionFailed
	KindPostActionVerificationFailed
)

func (k Kind) String() string {
	switch k {
	case KindPlatformUnknown:
		return "PlatformUnknown"
	case KindToolchainNotFound:
		return "ToolchainNotFound"
	case KindBuildToolMissing:
		return "BuildToolMissing"
	case KindConsentDeclined:
		return "ConsentDeclined"
	case KindTransferFailed:
		return "TransferFailed"
	case KindInstallFailed:
		return "InstallFailed"
	case KindEnvironmentCollision:
		return "EnvironmentCollision"
	case KindEnvironmentActionFailed:
		return "EnvironmentActionFailed"
	case KindPostActionVerificationFailed:
		return "PostActionVerificationFailed"
	default:
		return "Unknown"
	}
}

// IsFatal reports whether a failure of this kind must end the run.
func IsFatal(k Kind) bool {
	switch k {
	case KindPlatformUnknown, KindBuildToolMissing:
		return false
	default:
		return true
	}
}

// Error carries the operation that failed, the resource involved and the
// hints shown to the operator.
type Error struct {
	Kind        Kind
	Op          string
	Resource    string
	Suggestions []string
	Err         error
}

// New builds an Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithResource records the file, directory or name the failure concerns.
func (e *Error) WithResource(resource string) *Error {
	e.Resource = resource
	return e
}

// WithSuggestion appends an operator hint.
func (e *Error) WithSuggestion(format string, args ...any) *Error {
	e.Suggestions = append(e.Suggestions, fmt.Sprintf(format, args...))
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Resource != "" {
		b.WriteString(" ")
		b.WriteString(e.Resource)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Format renders the message followed by one line per suggestion.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, s := range e.Suggestions {
		b.WriteString("\n  - ")
		b.WriteString(s)
	}
	return b.String()
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindUnknown
}

// Describe renders err for the terminal, including suggestions when err
// wraps an *Error.
func Describe(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		if ie == err {
			return ie.Format()
		}
		msg := err.Error()
		for _, s := range ie.Suggestions {
			msg += "\n  - " + s
		}
		return msg
	}
	return err.Error()
}

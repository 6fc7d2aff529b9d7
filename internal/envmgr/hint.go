package envmgr

import (
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ActivationHint is the command an operator runs to enter the environment.
func ActivationHint(m Manager, spec Spec) string {
	switch mgr := m.(type) {
	case *VenvManager:
		if mgr.Windows {
			return "& " + powershellQuote(filepath.Join(mgr.Target(spec), "Scripts", "Activate.ps1"))
		}
		return "source " + quote(filepath.Join(mgr.Target(spec), "bin", "activate"))
	default:
		return "conda activate " + quote(spec.Name)
	}
}

// powershellQuote wraps s in single quotes, doubling embedded ones.
func powershellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return s
	}
	return q
}

package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	version "github.com/hashicorp/go-version"
)

var versionRegex = regexp.MustCompile(`([0-9]+)\.([0-9]+)(?:\.([0-9]+))?`)

// ParseVersion extracts the first dotted version number from a tool's
// --version banner, e.g. "Python 3.8.10" or "conda 4.10.3".
func ParseVersion(text string) (*version.Version, error) {
	match := versionRegex.FindString(firstLine(strings.TrimSpace(text)))
	if match == "" {
		return nil, fmt.Errorf("no version number in %q", firstLine(text))
	}
	return version.NewVersion(match)
}

// MeetsMinimum compares only (major, minor). An empty minimum is always met.
func MeetsMinimum(v *version.Version, minimum string) bool {
	minimum = strings.TrimSpace(minimum)
	if minimum == "" {
		return true
	}
	if v == nil {
		return false
	}
	floor, err := version.NewVersion(minimum)
	if err != nil {
		return false
	}
	have := pair(v)
	want := pair(floor)
	if have[0] != want[0] {
		return have[0] > want[0]
	}
	return have[1] >= want[1]
}

// MajorMinor renders the (major, minor) pair of v.
func MajorMinor(v *version.Version) string {
	p := pair(v)
	return fmt.Sprintf("%d.%d", p[0], p[1])
}

func pair(v *version.Version) [2]int {
	seg := v.Segments()
	var out [2]int
	for i := 0; i < len(out) && i < len(seg); i++ {
		out[i] = seg[i]
	}
	return out
}

// readVersion runs "<path> --version". Old interpreters print the banner on
// stderr, so both streams are inspected.
func readVersion(ctx context.Context, runner Runner, path string) (*version.Version, string, error) {
	res, err := runner.Run(ctx, path, []string{"--version"}, RunOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("%s --version: %w", path, err)
	}
	text := strings.TrimSpace(string(res.Stdout))
	if text == "" {
		text = strings.TrimSpace(string(res.Stderr))
	}
	v, err := ParseVersion(text)
	if err != nil {
		return nil, firstLine(text), err
	}
	return v, firstLine(text), nil
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

package envmgr

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// appliedManifest is the copy of the last requirements file pip applied,
// kept inside the environment so an update can drop removed packages.
const appliedManifest = "envsetup-requirements.txt"

var (
	requirementName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)
	nameSeparators  = regexp.MustCompile(`[-_.]+`)
)

// requirementNames returns the top-level project names in a requirements
// file, keyed by normalized name. Options, includes, editable installs and
// bare paths or URLs carry no name and are skipped.
func requirementNames(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "\\"))
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		m := requirementName.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(line[len(m[1]):], ":") {
			continue
		}
		names[normalizeProject(m[1])] = m[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return names, nil
}

func normalizeProject(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(name), "-")
}

// removedRequirements lists the projects named in the recorded manifest that
// the new manifest no longer names. A missing record yields nothing.
func removedRequirements(recorded, manifest string) ([]string, error) {
	before, err := requirementNames(recorded)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	after, err := requirementNames(manifest)
	if err != nil {
		return nil, err
	}

	var removed []string
	for key, name := range before {
		if _, ok := after[key]; !ok {
			removed = append(removed, name)
		}
	}
	slices.Sort(removed)
	return removed, nil
}

// recordManifest copies manifest into dir as the applied manifest.
func recordManifest(manifest, dir string) error {
	data, err := os.ReadFile(manifest)
	if err != nil {
		return fmt.Errorf("read %s: %w", manifest, err)
	}
	if err := os.WriteFile(filepath.Join(dir, appliedManifest), data, 0o644); err != nil {
		return fmt.Errorf("record applied manifest: %w", err)
	}
	return nil
}

package tools

type Source string

const (
	SourceUnknown   Source = ""
	SourceCandidate Source = "candidate"
	SourceGeneric   Source = "generic"
)

// VersionRequirement lists the runtimes acceptable for a front-end.
type VersionRequirement struct {
	// Tool is the display name, e.g. "python" or "conda".
	Tool string
	// Executable is the base name candidate versions are appended to
	// ("python" + "3.9" resolves python3.9).
	Executable string
	// Candidates are tried in order; the first resolvable one wins.
	Candidates []string
	// Generic is the version-less executable name or absolute path used
	// when no candidate resolves.
	Generic string
	// Minimum is the (major, minor) floor applied to Generic only.
	Minimum string
}

// ToolchainBinding is the runtime chosen by negotiation.
type ToolchainBinding struct {
	Tool            string `json:"tool"`
	SelectedVersion string `json:"selected_version"`
	ExecutablePath  string `json:"executable_path"`
	Source          Source `json:"source"`
	Banner          string `json:"banner,omitempty"`
}

// Attempt records one lookup made during negotiation.
type Attempt struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

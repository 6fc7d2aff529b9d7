package tools

import (
	"runtime"
	"sort"
)

var hostOS = runtime.GOOS

// BuildTool describes an auxiliary program needed when dependencies must be
// compiled from source. Any one of Executables satisfies it.
type BuildTool struct {
	Name        string
	Description string
	Executables []string
}

var buildToolDefinitions = map[string]BuildTool{
	"compiler": {
		Name:        "compiler",
		Description: "C/C++ compiler toolchain",
		Executables: []string{"cc", "gcc", "clang", "cl"},
	},
	"java": {
		Name:        "java",
		Description: "Java runtime",
		Executables: []string{"java"},
	},
}

func executableName(base string) string {
	if hostOS == "windows" {
		return base + ".exe"
	}
	return base
}

// KnownBuildTools returns the names accepted in build_tools config lists.
func KnownBuildTools() []string {
	names := make([]string, 0, len(buildToolDefinitions))
	for name := range buildToolDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildToolDefinition returns the definition for the provided name.
func BuildToolDefinition(name string) (BuildTool, bool) {
	def, ok := buildToolDefinitions[name]
	return def, ok
}

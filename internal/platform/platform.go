// Package platform resolves the host operating system family and CPU word
// size into the identifiers used when naming installer artifacts.
package platform

import (
	"fmt"
	"runtime"
)

// OSFamily is the normalized operating system name used in installer names.
type OSFamily string

const (
	Linux   OSFamily = "Linux"
	MacOSX  OSFamily = "MacOSX"
	Windows OSFamily = "Windows"
	Unknown OSFamily = "Unknown"
)

// Info describes the host. It is derived once per run and not modified.
type Info struct {
	OSFamily         OSFamily `json:"os_family"`
	BitWidth         int      `json:"bit_width"`
	ArchiveExtension string   `json:"archive_extension"`
	// Machine is the normalized CPU architecture (x86_64, x86, aarch64, arm64, ...).
	Machine string `json:"machine"`
}

// Detect inspects the running process. It never fails: unrecognized hosts
// map to Unknown with a 64-bit word size.
func Detect() Info {
	return DetectFor(runtime.GOOS, runtime.GOARCH)
}

// DetectFor maps a GOOS/GOARCH pair to Info.
func DetectFor(goos, goarch string) Info {
	info := Info{
		OSFamily: familyFor(goos),
		BitWidth: bitWidthFor(goarch),
	}
	info.ArchiveExtension = extensionFor(info.OSFamily)
	info.Machine = normalizeMachine(info.OSFamily, goarch, info.BitWidth)
	return info
}

// Known reports whether the operating system family was recognized.
func (i Info) Known() bool {
	return i.OSFamily != Unknown
}

// InstallerArch returns the architecture token used in installer file names.
func (i Info) InstallerArch() string {
	switch i.Machine {
	case "aarch64", "arm64", "ppc64le", "s390x":
		return i.Machine
	}
	if i.BitWidth == 32 {
		return "x86"
	}
	return "x86_64"
}

func (i Info) String() string {
	return fmt.Sprintf("%s %d-bit (%s)", i.OSFamily, i.BitWidth, i.Machine)
}

func familyFor(goos string) OSFamily {
	switch goos {
	case "linux":
		return Linux
	case "darwin":
		return MacOSX
	case "windows":
		return Windows
	default:
		return Unknown
	}
}

func bitWidthFor(goarch string) int {
	switch goarch {
	case "386", "arm", "mips", "mipsle", "wasm":
		return 32
	default:
		return 64
	}
}

func extensionFor(family OSFamily) string {
	if family == Windows {
		return "exe"
	}
	return "sh"
}

func normalizeMachine(family OSFamily, goarch string, bits int) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		if family == MacOSX {
			return "arm64"
		}
		return "aarch64"
	case "ppc64le", "s390x":
		return goarch
	case "arm":
		return "armv7l"
	}
	if bits == 32 {
		return "x86"
	}
	return "x86_64"
}

package bootstrap

import (
	"path"
	"strings"

	"envsetup/internal/platform"
)

// DefaultURLTemplate points at the rolling Miniconda release.
const DefaultURLTemplate = "https://repo.anaconda.com/miniconda/{name}-latest-{os}-{arch}.{ext}"

// RenderURL substitutes {name}, {os}, {arch} and {ext} in template.
func RenderURL(template, name string, info platform.Info) string {
	r := strings.NewReplacer(
		"{name}", name,
		"{os}", string(info.OSFamily),
		"{arch}", info.InstallerArch(),
		"{ext}", info.ArchiveExtension,
	)
	return r.Replace(template)
}

// ArtifactName is the file name part of the rendered URL.
func ArtifactName(template, name string, info platform.Info) string {
	rendered := RenderURL(template, name, info)
	if i := strings.IndexAny(rendered, "?#"); i >= 0 {
		rendered = rendered[:i]
	}
	return path.Base(rendered)
}

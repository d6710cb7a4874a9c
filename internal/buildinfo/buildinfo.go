// Package buildinfo provides version information derived from Go build metadata.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version returns the version string for the current build.
//
// For tagged releases (via go install), returns the tag (e.g., "v0.2.0").
// For development builds, returns a pseudo-version from VCS info:
// "dev-<hash>", "dev-<hash>-dirty", or plain "dev" when no VCS data
// is embedded. Returns "unknown" if build info cannot be read.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return devVersion(info)
}

func devVersion(info *debug.BuildInfo) string {
	var revision string
	var modified bool

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}

	if len(revision) > 12 {
		revision = revision[:12]
	}

	version := fmt.Sprintf("dev-%s", revision)
	if modified {
		version += "-dirty"
	}
	return version
}

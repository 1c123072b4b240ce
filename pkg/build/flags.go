// SPDX-License-Identifier: MIT
//
// Package build carries metadata stamped into the binary with -ldflags:
// application name, build timestamp, commit hash and version. Unstamped
// binaries (plain `go build`, `go run`) fall back to development values
// instead of failing, so the tool stays runnable without the release
// pipeline.
package build

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Populated by -ldflags at release time, e.g.
//
//	-X dronebeat/pkg/build.buildVersion=v0.3.0
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	buildFlags = &ldFlags{
		Name:    "dronebeat",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies any stamped ldflags values over the development
// defaults. Call once early in startup, before anything reads the
// flags.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the resolved build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

package app

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X github.com/tejashwikalptaru/tunecore/internal/app.Version=1.0.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = ""
	BuildTime = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	GitTag    string `json:"git_tag,omitempty"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// GetVersionInfo returns the ldflags values. A binary built with go install
// has none, so the module version and VCS revision from the build info fill in.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GitTag:    GitTag,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		info.Version = build.Main.Version
	}
	for _, s := range build.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" && len(s.Value) >= 7 {
				info.GitCommit = s.Value[:7]
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// FullString returns a one-line version string.
func (v VersionInfo) FullString() string {
	version := v.Version
	if v.GitTag != "" {
		version = v.GitTag
	}
	return fmt.Sprintf("tunecore %s (commit: %s, built: %s)", version, v.GitCommit, v.BuildTime)
}

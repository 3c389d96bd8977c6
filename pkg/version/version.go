// Package version carries the build metadata stamped into the nexusd
// binary at release time:
//
//	go build -ldflags "\
//	  -X github.com/nexuscore/nexus/pkg/version.Version=$(git describe --tags) \
//	  -X github.com/nexuscore/nexus/pkg/version.GitCommit=$(git rev-parse --short HEAD) \
//	  -X github.com/nexuscore/nexus/pkg/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	  ./cmd/nexusd
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release version, or the dev default when built
	// without ldflags.
	Version = "0.1.0"

	// GitCommit is the short commit hash of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Info is the structured build-metadata payload served by the REST root
// endpoint and printed by nexusd -version.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get snapshots the stamped build variables.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String renders the one-line summary the -version flag prints.
func (i Info) String() string {
	return fmt.Sprintf("nexusd %s (commit %s, built %s, %s)", i.Version, i.GitCommit, i.BuildTime, i.GoVersion)
}

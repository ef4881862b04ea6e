// Package version carries build metadata set via ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/mdsite/internal/version.Version=v1.0.0"
package version

import "fmt"

// Version is the release version.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version for --version output.
func String() string {
	return fmt.Sprintf("mdsite %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

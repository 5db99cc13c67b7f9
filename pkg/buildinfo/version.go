// Package buildinfo holds the version reported by chaski --version.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/quipucords/chaski/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/quipucords/chaski/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/quipucords/chaski/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries installed with go install report the module version instead.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

func init() {
	if Version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

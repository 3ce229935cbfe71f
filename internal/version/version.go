// Package version holds build metadata set through ldflags:
//
//	go build -ldflags "-X git.home.luguber.info/inful/apidoc/internal/version.Version=v0.3.0"
package version

import "fmt"

var (
	Version   = "unknown"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String is the line printed by apidoc --version.
func String() string {
	return fmt.Sprintf("apidoc %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

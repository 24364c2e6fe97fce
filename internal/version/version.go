// Package version exposes build metadata stamped in with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

// Stamped at link time; the defaults identify a local build.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the line printed by `kumo-wf version`.
func String() string {
	return fmt.Sprintf("kumo-wf %s (commit=%s, date=%s, go=%s)", Version, Commit, Date, runtime.Version())
}

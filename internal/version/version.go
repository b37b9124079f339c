// Package version holds build metadata injected via ldflags:
//
//	-X github.com/selfadvocacy/discovery/internal/version.Version=v1.2.0
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build for startup logs, e.g. "v1.2.0 (abc123, 2026-01-02)".
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}

// Package version exposes build-time version information.
// The variables are overridden at build time via -ldflags:
//
//	go build -ldflags "-X github.com/wardwatch/wardwatch/internal/version.Version=v0.3.0 ..."
package version

import "fmt"

var (
	// Version is the semantic version of the binary ("dev" for local builds).
	Version = "dev"

	// Commit is the short git commit hash the binary was built from.
	Commit = "none"

	// Date is the UTC build timestamp.
	Date = "unknown"
)

// Short returns just the version string, e.g. "v0.3.0" or "dev".
func Short() string {
	return Version
}

// Info returns a human-readable version line for --version output.
func Info() string {
	return fmt.Sprintf("wardwatch %s (commit %s, built %s)", Version, Commit, Date)
}

// Map returns version fields for JSON health responses.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}

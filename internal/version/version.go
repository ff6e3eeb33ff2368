// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/odds-data/internal/version.Version=0.3.0 \
//	                   -X github.com/rickgao/odds-data/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/tracker
package version

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "0.3.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ")"
}

// UserAgent is sent with every odds API request.
func UserAgent() string {
	return "odds-tracker/" + Version
}

// Package version exposes build metadata injected at link time.
package version

// populated via -ldflags at build time, e.g.
// -X github.com/utilhub/nfequery/internal/version.version=v1.2.3
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Info holds the build metadata for the running binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
}

// Get returns the build metadata.
func Get() Info {
	return Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
	}
}

// Package version reports the build of the running binary
package version

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information. version, commit and date are set with
// -ldflags "-X lifesync/internal/core/version.version=v0.1.0 ..."
func Info() BuildInfo {
	return BuildInfo{
		Service: "lifesync",
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String is the one line form printed by the CLI
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

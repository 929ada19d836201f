// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// UserAgent identifies outbound requests made by this build.
func UserAgent() string {
	return "hybridchat/" + Version + " (+" + Commit + ")"
}

package buildinfo

// Set via -ldflags "-X kaspit-backend/internal/buildinfo.Version=..." at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

package version

// Set at build time:
//
//	go build -ldflags "-X catalog-admin/internal/version.Version=1.0.0 -X catalog-admin/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

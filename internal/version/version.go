// Package version exposes the build version of the service.
package version

// Version is overridden at build time:
//
//	go build -ldflags "-X github.com/iliyamo/fly-starter/internal/version.Version=1.2.3"
var Version = "dev"

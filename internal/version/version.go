// Package version holds build metadata set via -ldflags.
package version

// AppVersion is overridden at build time:
//
//	go build -ldflags "-X replctl/internal/version.AppVersion=v0.1.0"
var AppVersion = "dev"

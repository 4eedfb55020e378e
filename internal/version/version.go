// Package version holds the build version string for diffservd.
package version

// Version is overridden at build time via -ldflags.
var Version = "dev"

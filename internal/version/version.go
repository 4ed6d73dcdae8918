// Package version holds the tool version stamped into backup metadata.
package version

// Version is overridden at build time via -ldflags.
var Version = "0.4.0-dev"

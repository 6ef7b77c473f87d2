// Package misc keeps small program identity helpers used across the program.
package misc

import (
	"runtime/debug"
)

const appName = "wsc"

// GetAppName returns short program name used for logs, temporary files and reports.
func GetAppName() string {
	return appName
}

// GetVersion returns module version baked in by the Go toolchain.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns VCS revision if it is available in the build information.
func GetGitHash() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

// Package kvtrack provides the version information for kvtrack.
package kvtrack

// Version is the current version of kvtrack.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

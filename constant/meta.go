// Package constant defines immutable application-level identifiers and protocol defaults.
package constant

const (
	// App is the canonical application identifier used for filesystem paths and CLI branding.
	App = "vidbridge"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// MinBridgeVersion is the oldest bridge version this controller can talk to.
	MinBridgeVersion = "0.2.0"

	// Repository is the GitHub slug used for release checks.
	Repository = "vidbridge/vidbridge"
)

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)

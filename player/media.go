// Package player is the playback side of the protocol: a per-instance
// channel that turns transport commands into playback-state transitions,
// and the media primitive it drives.
package player

// Media is the primitive that actually renders the video.
// Positions and durations are in seconds.
type Media interface {
	// Play resumes playback.
	Play() error

	// Pause suspends playback.
	Pause() error

	// SetCurrentTime moves the playback position.
	SetCurrentTime(seconds float64) error

	// Duration returns the total length of the loaded media.
	Duration() (float64, error)

	// OnMetadataLoaded calls fn once, as soon as the duration is known.
	// If it is already known, fn is called immediately.
	OnMetadataLoaded(fn func(duration float64))
}

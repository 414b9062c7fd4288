package constant

import "time"

// Protocol timings shared by the controller and the bridge.
const (
	// HeartbeatInterval is the period between two controller heartbeats.
	HeartbeatInterval = 1000 * time.Millisecond

	// ControllerTTL is how long the bridge considers a silent controller alive.
	ControllerTTL = 3 * HeartbeatInterval

	// AnnounceInterval is the period between two ready announcements of a playback page.
	AnnounceInterval = HeartbeatInterval

	// InstanceTTL is how long the bridge keeps a page that stopped announcing.
	InstanceTTL = 3 * AnnounceInterval

	// SeekStep is the jump applied by the controller seek keys.
	SeekStep = 5 * time.Second
)

// Relay defaults.
const (
	DefaultRelayAddr = "127.0.0.1:7878"
	DefaultRelayURL  = "ws://" + DefaultRelayAddr
	DefaultChannel   = "vidbridge"
)

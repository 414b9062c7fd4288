// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Transport - where the broadcast channel lives.
const (
	TransportRelayURL = "transport.relay_url"
	TransportChannel  = "transport.channel"
)

// Relay server.
const (
	RelayAddr         = "relay.addr"
	RelayPingInterval = "relay.ping_interval"
)

// Controller - registry and heartbeat parameters.
const (
	ControllerHeartbeatInterval = "controller.heartbeat_interval"
	ControllerVersionTimeout    = "controller.version_timeout"
	ControllerDiscoveryTimeout  = "controller.discovery_timeout"
)

// Bridge - discovery counterpart.
const (
	BridgeControllerTTL = "bridge.controller_ttl"
	BridgeInstanceTTL   = "bridge.instance_ttl"
)

// Media Playback - these keys configure the playback page and its mpv window.
const (
	PlayerMediaBaseURL = "player.media_base_url"
	PlayerExecutable   = "player.executable"
	PlayerFitWindow    = "player.fit_window"
	PlayerScreenWidth  = "player.screen_width"
	PlayerScreenHeight = "player.screen_height"
	PlayerTabID        = "player.tab_id"
	PlayerAnnounce     = "player.announce_interval"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)

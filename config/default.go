// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/constant"
	"github.com/vidbridge/vidbridge/key"
	"github.com/vidbridge/vidbridge/style"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.TransportRelayURL, constant.DefaultRelayURL, "Websocket URL of the relay carrying the broadcast channel")
	register(key.TransportChannel, constant.DefaultChannel, "Name of the broadcast channel shared by controllers, bridges and playback pages")
	register(key.RelayAddr, constant.DefaultRelayAddr, "Listen address of \"vidbridge relay\"")
	register(key.RelayPingInterval, 30, "Seconds between websocket keepalive pings sent by the relay")
	register(key.ControllerHeartbeatInterval, int(constant.HeartbeatInterval.Milliseconds()), "Milliseconds between two controller heartbeats")
	register(key.ControllerVersionTimeout, 5, "Seconds to wait for the bridge version before giving up.\n0 waits forever")
	register(key.ControllerDiscoveryTimeout, 3, "Seconds to wait for the first instance snapshot in non-interactive commands")
	register(key.BridgeControllerTTL, int(constant.ControllerTTL.Milliseconds()), "Milliseconds after which a silent controller is forgotten by the bridge")
	register(key.BridgeInstanceTTL, int(constant.InstanceTTL.Milliseconds()), "Milliseconds after which a playback page that stopped announcing is forgotten by the bridge")
	register(key.PlayerAnnounce, int(constant.AnnounceInterval.Milliseconds()), "Milliseconds between two ready announcements of a playback page")
	register(key.PlayerMediaBaseURL, "", "Base URL prepended to media source identifiers that are not URLs or paths")
	register(key.PlayerExecutable, "mpv", "mpv executable used to render the playback page")
	register(key.PlayerFitWindow, true, "Resize the player window to the media aspect ratio on load")
	register(key.PlayerScreenWidth, 0, "Screen width in pixels used by window fitting.\n0 disables fitting")
	register(key.PlayerScreenHeight, 0, "Screen height in pixels used by window fitting.\n0 disables fitting")
	register(key.PlayerTabID, 0, "Tab identifier announced by the playback page.\n0 uses the process id")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))

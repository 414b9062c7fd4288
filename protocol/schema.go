package protocol

import (
	"github.com/invopop/jsonschema"
)

// schemaEnvelope documents the wire envelope; Message is described per command.
type schemaEnvelope struct {
	Sender  Sender         `json:"sender" jsonschema:"required,enum=controller,enum=bridge"`
	Message map[string]any `json:"message" jsonschema:"required"`
	TabID   int            `json:"tabId,omitempty"`
	Src     string         `json:"src,omitempty"`
}

// Schema returns the JSON schema of the envelope and of every command payload.
func Schema() map[string]*jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.ExpandedStruct = true

	payloads := map[Command]Message{
		CommandTabs:        Tabs{},
		CommandAckTabs:     AckTabs{},
		CommandHeartbeat:   Heartbeat{},
		CommandVersion:     Version{},
		CommandReady:       Ready{},
		CommandCurrentTime: CurrentTime{},
		CommandPlay:        Play{},
		CommandPause:       Pause{},
		CommandClose:       Close{},
	}

	schemas := make(map[string]*jsonschema.Schema, len(payloads)+1)
	schemas["envelope"] = reflector.Reflect(&schemaEnvelope{})
	for command, payload := range payloads {
		s := reflector.Reflect(payload)
		s.Title = string(command)
		if s.Properties != nil {
			s.Properties.Set("command", &jsonschema.Schema{Type: "string", Const: string(command)})
		}
		s.Required = append(s.Required, "command")
		schemas[string(command)] = s
	}
	return schemas
}

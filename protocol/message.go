// Package protocol defines the envelope exchanged on the broadcast transport
// between controllers, bridges and playback pages, and its JSON codec.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Command names the variant of a Message on the wire.
type Command string

const (
	CommandTabs        Command = "tabs"
	CommandAckTabs     Command = "ackTabs"
	CommandVersion     Command = "version"
	CommandHeartbeat   Command = "heartbeat"
	CommandReady       Command = "ready"
	CommandPlay        Command = "play"
	CommandPause       Command = "pause"
	CommandCurrentTime Command = "currentTime"
	CommandClose       Command = "close"
)

// Commands lists every command known to this protocol version.
var Commands = []Command{
	CommandTabs, CommandAckTabs, CommandVersion, CommandHeartbeat,
	CommandReady, CommandPlay, CommandPause, CommandCurrentTime, CommandClose,
}

// ErrMissingCommand is returned when a message carries no command field.
var ErrMissingCommand = errors.New("message has no command")

// Message is one variant of the command union.
type Message interface {
	Command() Command
}

// Tabs carries the full list of live instances, sent by the bridge.
type Tabs struct {
	Tabs         Instances `json:"tabs"`
	AckRequested bool      `json:"ackRequested"`
}

// AckTabs confirms receipt of a Tabs snapshot.
type AckTabs struct {
	ID           string    `json:"id"`
	ReceivedTabs Instances `json:"receivedTabs"`
}

// Heartbeat announces a live controller and the snapshot it holds.
type Heartbeat struct {
	ID           string    `json:"id"`
	ReceivedTabs Instances `json:"receivedTabs"`
}

// Version carries the bridge version.
type Version struct {
	Version string `json:"version"`
}

// Ready announces that media metadata is loaded. Duration is in seconds.
type Ready struct {
	Duration float64 `json:"duration"`
}

// CurrentTime moves the playback position. CurrentTime is in seconds.
type CurrentTime struct {
	CurrentTime float64 `json:"currentTime"`
}

type (
	Play  struct{}
	Pause struct{}
	Close struct{}
)

// Unknown keeps a message whose command this version does not know, so it can
// be forwarded verbatim.
type Unknown struct {
	Name Command
	Raw  json.RawMessage
}

func (Tabs) Command() Command        { return CommandTabs }
func (AckTabs) Command() Command     { return CommandAckTabs }
func (Heartbeat) Command() Command   { return CommandHeartbeat }
func (Version) Command() Command     { return CommandVersion }
func (Ready) Command() Command       { return CommandReady }
func (CurrentTime) Command() Command { return CommandCurrentTime }
func (Play) Command() Command        { return CommandPlay }
func (Pause) Command() Command       { return CommandPause }
func (Close) Command() Command       { return CommandClose }
func (u Unknown) Command() Command   { return u.Name }

// MarshalMessage encodes m as a flat JSON object whose "command" field names the variant.
func MarshalMessage(m Message) ([]byte, error) {
	if m == nil {
		return nil, ErrMissingCommand
	}

	if u, ok := m.(Unknown); ok {
		if len(u.Raw) > 0 {
			return u.Raw, nil
		}
		return json.Marshal(map[string]Command{"command": u.Name})
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.Command(), err)
	}

	head, err := json.Marshal(m.Command())
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString(`{"command":`)
	b.Write(head)
	if body := bytes.TrimSpace(payload[1 : len(payload)-1]); len(body) > 0 {
		b.WriteByte(',')
		b.Write(body)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalMessage decodes a message produced by MarshalMessage.
func UnmarshalMessage(data []byte) (Message, error) {
	var head struct {
		Command Command `json:"command"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if head.Command == "" {
		return nil, ErrMissingCommand
	}

	switch head.Command {
	case CommandTabs:
		return decode[Tabs](data)
	case CommandAckTabs:
		return decode[AckTabs](data)
	case CommandHeartbeat:
		return decode[Heartbeat](data)
	case CommandVersion:
		return decode[Version](data)
	case CommandReady:
		return decode[Ready](data)
	case CommandCurrentTime:
		return decode[CurrentTime](data)
	case CommandPlay:
		return Play{}, nil
	case CommandPause:
		return Pause{}, nil
	case CommandClose:
		return Close{}, nil
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unknown{Name: head.Command, Raw: raw}, nil
	}
}

func decode[T Message](data []byte) (Message, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", v.Command(), err)
	}
	return v, nil
}

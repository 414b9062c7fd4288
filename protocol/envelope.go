package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/mo"
)

// Sender names the role that placed an envelope on the transport.
type Sender string

const (
	// Controller is the party that discovers instances and issues playback commands.
	Controller Sender = "controller"
	// Bridge is the playback side: the discovery bridge and every playback page.
	Bridge Sender = "bridge"
)

// Valid reports whether s is a known role.
func (s Sender) Valid() bool {
	return s == Controller || s == Bridge
}

// ErrUnknownSender is returned by Decode for envelopes from an unknown role.
var ErrUnknownSender = errors.New("unknown sender")

// Envelope is the only shape ever placed on the transport.
type Envelope struct {
	Sender  Sender
	Message Message
	TabID   mo.Option[int]
	Src     mo.Option[string]
}

// Broadcast builds an envelope that is not addressed to a particular instance.
func Broadcast(sender Sender, m Message) Envelope {
	return Envelope{Sender: sender, Message: m}
}

// To builds an envelope addressed to one instance.
func To(sender Sender, m Message, instance Instance) Envelope {
	return Envelope{
		Sender:  sender,
		Message: m,
		TabID:   mo.Some(instance.TabID),
		Src:     mo.Some(instance.Src),
	}
}

// Command is a shorthand for e.Message.Command().
func (e Envelope) Command() Command {
	if e.Message == nil {
		return ""
	}
	return e.Message.Command()
}

// Target returns the addressed instance when both tabId and src are present.
func (e Envelope) Target() mo.Option[Instance] {
	tabID, okTab := e.TabID.Get()
	src, okSrc := e.Src.Get()
	if !okTab || !okSrc {
		return mo.None[Instance]()
	}
	return mo.Some(Instance{TabID: tabID, Src: src})
}

// Addresses reports whether the envelope concerns the instance. Absent
// address fields match everything.
func (e Envelope) Addresses(instance Instance) bool {
	if tabID, ok := e.TabID.Get(); ok && tabID != instance.TabID {
		return false
	}
	if src, ok := e.Src.Get(); ok && src != instance.Src {
		return false
	}
	return true
}

type wireEnvelope struct {
	Sender  Sender          `json:"sender"`
	Message json.RawMessage `json:"message"`
	TabID   *int            `json:"tabId,omitempty"`
	Src     *string         `json:"src,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Envelope) MarshalJSON() ([]byte, error) {
	message, err := MarshalMessage(e.Message)
	if err != nil {
		return nil, err
	}

	w := wireEnvelope{Sender: e.Sender, Message: message}
	if tabID, ok := e.TabID.Get(); ok {
		w.TabID = &tabID
	}
	if src, ok := e.Src.Get(); ok {
		w.Src = &src
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.Message) == 0 || string(w.Message) == "null" {
		return ErrMissingCommand
	}

	message, err := UnmarshalMessage(w.Message)
	if err != nil {
		return err
	}

	*e = Envelope{
		Sender:  w.Sender,
		Message: message,
		TabID:   mo.PointerToOption(w.TabID),
		Src:     mo.PointerToOption(w.Src),
	}
	return nil
}

// Encode serializes an envelope for the wire.
func Encode(e Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// Decode parses a wire frame and rejects envelopes from unknown senders.
func Decode(data []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if !e.Sender.Valid() {
		return Envelope{}, fmt.Errorf("%w %q", ErrUnknownSender, e.Sender)
	}
	return e, nil
}

package player

import "github.com/vidbridge/vidbridge/protocol"

// State is the lifecycle of a playback instance.
type State int

const (
	Uninitialized State = iota
	Ready
	Playing
	Paused
	Closed
)

var stateNames = map[State]string{
	Uninitialized: "uninitialized",
	Ready:         "ready",
	Playing:       "playing",
	Paused:        "paused",
	Closed:        "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// accepts reports whether a command may be applied in state s.
func (s State) accepts(command protocol.Command) bool {
	switch command {
	case protocol.CommandPlay:
		return s == Ready || s == Paused
	case protocol.CommandPause:
		return s == Playing
	case protocol.CommandCurrentTime:
		return s == Ready || s == Playing || s == Paused
	case protocol.CommandClose:
		return s != Closed
	default:
		return false
	}
}

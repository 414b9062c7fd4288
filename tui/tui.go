// Package tui is the interactive controller: it lists live playback
// instances and sends play, pause, seek and close commands to them.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidbridge/vidbridge/registry"
)

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Registry *registry.Registry
	// VersionTimeout bounds the wait for the bridge version.
	VersionTimeout time.Duration
}

// Run executes the Bubble Tea application loop until the user quits.
func Run(options *Options) error {
	bubble := newBubble(options)
	defer bubble.detach()

	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}

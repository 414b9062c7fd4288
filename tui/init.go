package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init waits for the bridge version and starts listening to the registry.
func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(
		b.spinnerC.Tick,
		b.waitForVersion(),
		b.waitForTabs(),
		b.waitForEvent(),
		tick(),
	)
}

package tui

import (
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vidbridge/vidbridge/constant"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/registry"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case error:
		b.raiseError(msg)
		return b, nil
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil
	case versionMsg:
		b.onVersion(msg)
		return b, nil
	case tabsMsg:
		return b, tea.Batch(b.onTabs(protocol.Instances(msg)), b.waitForTabs())
	case eventMsg:
		b.onEvent(registry.Message(msg))
		return b, b.waitForEvent()
	case tickMsg:
		return b, tick()
	case spinner.TickMsg:
		if b.state != loadingState {
			return b, nil
		}
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		return b, cmd
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}

		switch b.state {
		case instancesState:
			return b.updateInstances(msg)
		case errorState:
			if bubblesKey.Matches(msg, b.keymap.back) {
				b.lastError = nil
				b.setState(instancesState)
				return b, nil
			}
			if bubblesKey.Matches(msg, b.keymap.quit) {
				return b, tea.Quit
			}
		}
	}

	return b, nil
}

func (b *statefulBubble) updateInstances(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case bubblesKey.Matches(msg, b.keymap.quit):
		return b, tea.Quit
	case bubblesKey.Matches(msg, b.keymap.pauseAll):
		b.broadcast(protocol.Pause{})
		return b, nil
	}

	if e, ok := b.selected().Get(); ok {
		switch {
		case bubblesKey.Matches(msg, b.keymap.playPause):
			b.send(e, e.toggle())
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.seekForward):
			b.send(e, e.seek(constant.SeekStep))
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.seekBackward):
			b.send(e, e.seek(-constant.SeekStep))
			return b, nil
		case bubblesKey.Matches(msg, b.keymap.closeInstance):
			b.send(e, protocol.Close{})
			return b, nil
		}
	}

	b.instancesC, cmd = b.instancesC.Update(msg)
	return b, cmd
}

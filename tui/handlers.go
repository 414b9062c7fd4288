package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/player"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/registry"
	"github.com/vidbridge/vidbridge/version"
)

const refreshInterval = 250 * time.Millisecond

type (
	tabsMsg    protocol.Instances
	eventMsg   registry.Message
	tickMsg    time.Time
	versionMsg struct {
		version string
		err     error
	}
)

func (b *statefulBubble) waitForTabs() tea.Cmd {
	return func() tea.Msg {
		return tabsMsg(<-b.tabsChannel)
	}
}

func (b *statefulBubble) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-b.messageChannel)
	}
}

func (b *statefulBubble) waitForVersion() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), b.options.VersionTimeout)
		defer cancel()

		v, err := b.registry.InstalledVersion(ctx)
		return versionMsg{version: v, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (b *statefulBubble) onVersion(msg versionMsg) {
	b.setState(instancesState)

	if msg.err != nil {
		b.status = "bridge is not responding"
		return
	}

	b.bridgeVersion = mo.Some(msg.version)

	compatible, err := version.Compatible(msg.version)
	if err != nil {
		log.Warnf("tui: bridge version %q: %s", msg.version, err)
	}
	b.compatible = compatible
	if !compatible {
		b.status = fmt.Sprintf("bridge %s is too old for this controller", msg.version)
	}
}

// onTabs replaces the listed instances with the snapshot.
func (b *statefulBubble) onTabs(tabs protocol.Instances) tea.Cmd {
	for instance, e := range b.entries {
		if !tabs.Contains(instance) {
			e.close()
			delete(b.entries, instance)
		}
	}

	items := lo.Map(tabs, func(instance protocol.Instance, _ int) list.Item {
		return &listItem{entry: b.entry(instance)}
	})

	return b.instancesC.SetItems(items)
}

// onEvent mirrors an instance event. Play, pause and seek requests from a
// page are confirmed by sending the command back to it.
func (b *statefulBubble) onEvent(m registry.Message) {
	instance, ok := m.Instance().Get()
	if !ok {
		return
	}

	switch data := m.Data.(type) {
	case protocol.Ready:
		b.entry(instance).ready(data.Duration)
	case protocol.Play, protocol.Pause, protocol.CurrentTime:
		b.send(b.entry(instance), data)
	case protocol.Close:
		if e, ok := b.entries[instance]; ok {
			e.close()
		}
	}
}

// send addresses m to one instance and mirrors it locally.
func (b *statefulBubble) send(e *entry, m protocol.Message) {
	if e.state == player.Closed {
		return
	}

	if err := b.registry.SendMessage(m, e.instance.TabID, e.instance.Src); err != nil {
		b.status = err.Error()
		return
	}
	e.apply(m)
}

// broadcast sends m to every instance and mirrors it locally.
func (b *statefulBubble) broadcast(m protocol.Message) {
	if err := b.registry.PublishMessage(m); err != nil {
		b.status = err.Error()
	}

	for _, e := range b.entries {
		e.apply(m)
	}
}

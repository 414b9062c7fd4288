package tui

import (
	"fmt"
	"time"

	"github.com/muesli/reflow/truncate"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/icon"
	"github.com/vidbridge/vidbridge/player"
	"github.com/vidbridge/vidbridge/style"
)

const maxSourceWidth = 48

// listItem implements list.Item for one instance.
type listItem struct {
	entry *entry
}

func (t *listItem) Title() string {
	src := truncate.StringWithTail(t.entry.instance.Src, maxSourceWidth, "…")
	return fmt.Sprintf("%s %s %s", stateIcon(t.entry.state), src, style.Faint(fmt.Sprintf("#%d", t.entry.instance.TabID)))
}

func (t *listItem) Description() string {
	position := formatDuration(t.entry.clock.CurrentTime())
	if t.entry.duration > 0 {
		position += " / " + formatDuration(t.entry.duration)
	}
	return fmt.Sprintf("%s  %s", stateLabel(t.entry.state), position)
}

func (t *listItem) FilterValue() string {
	return t.entry.instance.Src
}

func stateIcon(s player.State) string {
	switch s {
	case player.Playing:
		return icon.Get(icon.Play)
	case player.Paused:
		return icon.Get(icon.Pause)
	case player.Closed:
		return icon.Get(icon.Close)
	default:
		return icon.Get(icon.Live)
	}
}

func stateLabel(s player.State) string {
	switch s {
	case player.Playing:
		return style.Fg(color.Playing)(s.String())
	case player.Paused:
		return style.Fg(color.Paused)(s.String())
	default:
		return style.Fg(color.Idle)(s.String())
	}
}

// formatDuration renders d as m:ss, or h:mm:ss from one hour.
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

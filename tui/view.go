package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/constant"
	"github.com/vidbridge/vidbridge/icon"
	"github.com/vidbridge/vidbridge/style"
)

const headerHeight = 2

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	switch b.state {
	case loadingState:
		return b.viewLoading()
	case instancesState:
		return b.viewInstances()
	case errorState:
		return b.viewError()
	default:
		return "Unknown state"
	}
}

func (b *statefulBubble) viewLoading() string {
	return paddingStyle.Render(strings.Join([]string{
		style.Title(constant.App),
		"",
		b.spinnerC.View() + " Waiting for the bridge...",
		"",
		b.helpC.View(b.keymap),
	}, "\n"))
}

func (b *statefulBubble) viewInstances() string {
	return lipgloss.JoinVertical(lipgloss.Left, b.header(), listExtraPaddingStyle.Render(b.instancesC.View()))
}

func (b *statefulBubble) header() string {
	var bridge string
	if v, ok := b.bridgeVersion.Get(); ok {
		bridge = style.Faint("bridge " + v)
		if !b.compatible {
			bridge = style.Fg(color.Yellow)("bridge " + v)
		}
	} else {
		bridge = style.Fg(color.Idle)("bridge unknown")
	}

	line := fmt.Sprintf("%s %s", style.Title(constant.App), bridge)
	if b.status != "" {
		line += " " + style.Fg(color.Orange)(b.status)
	}

	return lipgloss.NewStyle().PaddingLeft(2).Render(line) + "\n"
}

func (b *statefulBubble) viewError() string {
	msg := "unknown error"
	if b.lastError != nil {
		msg = b.lastError.Error()
	}

	width := b.width - 4
	if width <= 0 {
		width = 80
	}

	return paddingStyle.Render(strings.Join([]string{
		style.ErrorTitle("Error"),
		"",
		style.Fg(color.Red)(icon.Get(icon.Fail) + " " + wrap.String(msg, width)),
		"",
		b.helpC.View(b.keymap),
	}, "\n"))
}

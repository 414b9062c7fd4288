// Package color provides the curated palette shared by the CLI and the TUI.
package color

import "github.com/charmbracelet/lipgloss"

// New initializes a lipgloss.Color from a string value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// Standard ANSI palette.
var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
)

// High-intensity variants.
var (
	HiRed    = New("9")
	HiPurple = New("13")
	HiCyan   = New("14")
)

// Playback state accents.
var (
	Playing = New("#a6e3a1")
	Paused  = New("#f9e2af")
	Idle    = New("#6c7086")
	Orange  = New("#ffb703")
)

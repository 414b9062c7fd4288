// Package icon renders UI symbols in the variant selected by the icons.variant setting.
//
// Icons can be displayed as emoji, nerd-font glyphs, plain ASCII, kaomoji,
// or Unicode squares depending on user preference.
package icon

import (
	"github.com/spf13/viper"
	"github.com/vidbridge/vidbridge/key"
)

const (
	emoji   = "emoji"
	nerd    = "nerd"
	plain   = "plain"
	kaomoji = "kaomoji"
	squares = "squares"
)

// AvailableVariants returns every supported variant identifier.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain, kaomoji, squares}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Play
	Pause
	Close
	Live
)

type iconDef struct {
	emoji   string
	nerd    string
	plain   string
	kaomoji string
	squares string
}

// Get resolves the representation for the configured variant.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	case kaomoji:
		return d.kaomoji
	case squares:
		return d.squares
	default:
		return ""
	}
}

var icons = map[Icon]*iconDef{
	Success:  {emoji: "🎉", nerd: "", plain: "Success", kaomoji: "(ᵔ◡ᵔ)", squares: "🟩"},
	Fail:     {emoji: "💀", nerd: "", plain: "Error", kaomoji: "(╥﹏╥)", squares: "🟥"},
	Progress: {emoji: "👨‍🍳", nerd: "", plain: "...", kaomoji: "(・_・)", squares: "🟦"},
	Play:     {emoji: "▶️", nerd: "", plain: ">", kaomoji: "(>‿<)", squares: "🟢"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "||", kaomoji: "(-_-)", squares: "🟡"},
	Close:    {emoji: "⏹️", nerd: "", plain: "x", kaomoji: "(x_x)", squares: "⬛"},
	Live:     {emoji: "📺", nerd: "", plain: "*", kaomoji: "(°o°)", squares: "🟪"},
}

// Get returns the rendered string for a registered icon.
func Get(i Icon) string {
	return icons[i].Get()
}

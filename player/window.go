package player

import (
	"github.com/vidbridge/vidbridge/util"
)

// Geometry is the host window and media size at load time, in pixels.
// Outer sizes include window decorations, inner sizes do not.
type Geometry struct {
	OuterWidth, OuterHeight   int
	InnerWidth, InnerHeight   int
	ScreenWidth, ScreenHeight int
	VideoWidth, VideoHeight   int
}

// FitWindow returns the window size that shows the video at its native
// aspect ratio, enlarged to fit the screen but never shrunk. ok is false
// when the geometry is incomplete.
func FitWindow(g Geometry) (width, height int, ratio float64, ok bool) {
	desiredWidth := g.VideoWidth + (g.OuterWidth - g.InnerWidth)
	desiredHeight := g.VideoHeight + (g.OuterHeight - g.InnerHeight)

	if g.VideoWidth <= 0 || g.VideoHeight <= 0 || desiredWidth <= 0 || desiredHeight <= 0 {
		return 0, 0, 0, false
	}
	if g.ScreenWidth <= 0 || g.ScreenHeight <= 0 {
		return 0, 0, 0, false
	}

	ratio = util.Max(1, util.Min(
		float64(g.ScreenWidth)/float64(desiredWidth),
		float64(g.ScreenHeight)/float64(desiredHeight),
	))

	return int(ratio * float64(desiredWidth)), int(ratio * float64(desiredHeight)), ratio, true
}

// Fit resizes the mpv window to the video's aspect ratio. Zero screen
// dimensions are read from mpv's display. Errors are for logging only.
func (m *MPV) Fit(screenWidth, screenHeight int) error {
	var err error
	g := Geometry{ScreenWidth: screenWidth, ScreenHeight: screenHeight}

	if g.VideoWidth, err = m.getIntProperty("width"); err != nil {
		return err
	}
	if g.VideoHeight, err = m.getIntProperty("height"); err != nil {
		return err
	}
	if g.ScreenWidth <= 0 {
		if g.ScreenWidth, err = m.getIntProperty("display-width"); err != nil {
			return err
		}
	}
	if g.ScreenHeight <= 0 {
		if g.ScreenHeight, err = m.getIntProperty("display-height"); err != nil {
			return err
		}
	}

	_, _, ratio, ok := FitWindow(g)
	if !ok {
		return nil
	}

	// mpv windows carry no decorations in the video size, so the scale is the ratio
	return m.Set("window-scale", ratio)
}

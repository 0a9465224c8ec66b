// Package opentuinvim embeds Neovim as a headless screen backend.
//
// The core client spawns an nvim process, attaches to it as an external UI
// over msgpack-RPC (via github.com/neovim/go-client), and mirrors the
// resulting screen state locally:
//   - Color and highlight attribute types
//   - Cell grid with resize/clear/line/scroll handling
//   - Cursor position and mode tracking
//   - One bound text buffer for read/write access
//   - Completion popup state machine
//   - Host key event to nvim notation translation
//
// Host-specific packages (cli, gtk, qt) provide the rendering surfaces that
// consume grid snapshots from this core package.
package opentuinvim

// Color is a 24-bit RGB color as delivered by the nvim UI protocol.
type Color struct {
	R, G, B uint8
}

// Default UI colors used until the remote sends default_colors_set.
var (
	DefaultForeground = Color{R: 212, G: 212, B: 212}
	DefaultBackground = Color{R: 30, G: 30, B: 30}
)

// ColorFromRGB unpacks a packed 24-bit 0xRRGGBB value. Negative values mean
// "no color specified" in the redraw protocol; callers should check for
// those before unpacking.
func ColorFromRGB(rgb int) Color {
	return Color{
		R: uint8(rgb >> 16),
		G: uint8(rgb >> 8),
		B: uint8(rgb),
	}
}

// RGB packs the color back into 0xRRGGBB form.
func (c Color) RGB() int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

// Package render turns topic and reply markdown into styled terminal text.
package render

import (
	"github.com/muesli/termenv"
)

// Styles understood besides a path to a glamour JSON style.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StyleNoTTY = "notty"
)

// Options configures the markdown renderer.
type Options struct {
	// Width is the word wrap column (default: 80)
	Width int

	// Style is "auto", "dark", "light", "notty" or a path to a JSON style
	Style string

	// EnableEmoji converts :emoji: to unicode characters
	EnableEmoji bool
}

// DefaultOptions returns the default configuration.
func DefaultOptions() Options {
	return Options{
		Width:       80,
		Style:       StyleAuto,
		EnableEmoji: true,
	}
}

// WithWidth returns Options with the specified width.
func (o Options) WithWidth(width int) Options {
	o.Width = width
	return o
}

// WithStyle returns Options with the specified style.
func (o Options) WithStyle(style string) Options {
	o.Style = style
	return o
}

// resolveStyle replaces "auto" by the style matching the terminal background.
func (o Options) resolveStyle() string {
	if o.Style != "" && o.Style != StyleAuto {
		return o.Style
	}
	if termenv.HasDarkBackground() {
		return StyleDark
	}
	return StyleLight
}

package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders step messages as markdown using glamour.
// The style follows the terminal; see NewRendererWithStyle for a fixed one.
func NewRenderer() func(string) (string, error) {
	return newRenderer(glamour.WithAutoStyle())
}

// NewRendererWithStyle renders with a named glamour style ("dark", "light",
// "notty", ...) regardless of the terminal.
func NewRendererWithStyle(style string) func(string) (string, error) {
	return newRenderer(glamour.WithStandardStyle(style))
}

// newRenderer falls back to the raw text when the renderer cannot be built.
func newRenderer(style glamour.TermRendererOption) func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"   __                      __ _               ",
	"  / _| ___  _ __ _ __ ___ / _| | _____      __",
	" | |_ / _ \\| '__| '_ ` _ \\ |_| |/ _ \\ \\ /\\ / /",
	" |  _| (_) | |  | | | | | |  _| | (_) \\ V  V / ",
	" |_|  \\___/|_|  |_| |_| |_|_| |_|\\___/ \\_/\\_/  ",
}

var bannerColors = []string{"#34d399", "#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa"}

// PrintBanner writes the formflow banner to w using a teal-to-blue gradient.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}

// System styles a meta-message (progress, validation errors) apart from form content.
func System(msg string) string {
	p := termenv.EnvColorProfile()
	return termenv.String(msg).Foreground(p.Color("#94a3b8")).Italic().String()
}

// Error styles a validation error.
func Error(msg string) string {
	p := termenv.EnvColorProfile()
	return termenv.String(msg).Foreground(p.Color("#f87171")).String()
}

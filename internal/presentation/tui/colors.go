package tui

import (
	"github.com/muesli/termenv"
)

var profile = termenv.ColorProfile()

// colorize styles text with a hex foreground color, degrading gracefully on
// plain terminals.
func colorize(text, hex string) string {
	return termenv.String(text).Foreground(profile.Color(hex)).String()
}

// Role accent colors used by the console runner.
const (
	ColorSystem    = "#818cf8"
	ColorUser      = "#34d399"
	ColorAssistant = "#c084fc"
	ColorPrompt    = "#fbbf24"
)

// Accent styles text with one of the role colors.
func Accent(text, hex string) string {
	return colorize(text, hex)
}

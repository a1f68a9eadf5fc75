package tui

import (
	"github.com/mattn/go-runewidth"
)

// truncate shortens a line to the given display width, accounting for
// wide runes. Card text can be arbitrarily long; the view never wraps it.
func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

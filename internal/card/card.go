// Package card defines the card value used by decks and sessions.
package card

import "strings"

// Card is a single prompt shown during a round. Text is the word to act
// out; Subtext is an optional secondary hint shown below it. A Card with
// an empty Subtext behaves as a plain label.
type Card struct {
	Text    string
	Subtext string
}

// Label returns a plain card without a subtext.
func Label(text string) Card {
	return Card{Text: text}
}

// Parse builds a Card from an authored line. A "text // subtext"
// separator produces a card with a hint; everything after the first
// separator belongs to the subtext. A separator with nothing after it
// yields a plain card.
func Parse(line string) Card {
	if idx := strings.Index(line, "//"); idx >= 0 {
		text := strings.TrimSpace(line[:idx])
		subtext := strings.TrimSpace(line[idx+2:])
		if subtext != "" {
			return Card{Text: text, Subtext: subtext}
		}
		return Card{Text: text}
	}
	return Card{Text: strings.TrimSpace(line)}
}

// Equal reports structural equality.
func (c Card) Equal(other Card) bool {
	return c.Text == other.Text && c.Subtext == other.Subtext
}

// Key returns a string usable as a dedup/set key. Distinct cards never
// collide because the separator cannot appear in a parsed Text.
func (c Card) Key() string {
	if c.Subtext == "" {
		return c.Text
	}
	return c.Text + "\x00" + c.Subtext
}

// Display returns the card as a single display string, the form stored
// in history records.
func (c Card) Display() string {
	if c.Subtext == "" {
		return c.Text
	}
	return c.Text + " (" + c.Subtext + ")"
}

// IsZero reports whether the card carries no text at all.
func (c Card) IsZero() bool {
	return c.Text == "" && c.Subtext == ""
}

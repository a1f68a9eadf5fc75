package deck

import (
	"sort"
	"strings"

	"github.com/verte-zerg/guessup/internal/card"
)

// Resolve flattens extends references for every deck. The result holds,
// per deck, the deduplicated, order-preserving concatenation of all
// transitively extended decks' cards followed by the deck's own cards,
// sorted by ID. Circular or unknown references are logged and contribute
// no cards; they never fail the whole resolution.
func Resolve(raw []Deck) []Deck {
	byID := make(map[string]Deck, len(raw))
	alias := make(map[string]string, len(raw)*2)
	for _, d := range raw {
		byID[d.ID] = d
		alias[d.ID] = d.ID
		if alt, ok := altID(d); ok {
			alias[alt] = d.ID
		}
	}

	resolved := make([]Deck, 0, len(raw))
	for _, d := range raw {
		cards := resolveCards(d.ID, nil, byID, alias)
		out := d
		out.Cards = dedupe(cards)
		resolved = append(resolved, out)
	}

	sort.Slice(resolved, func(i, j int) bool { return resolved[i].ID < resolved[j].ID })
	return resolved
}

// altID returns the "<locale>/<basename>" spelling for a file-derived ID.
func altID(d Deck) (string, bool) {
	prefix := d.Locale + "-"
	if !strings.HasPrefix(d.ID, prefix) {
		return "", false
	}
	return d.Locale + "/" + strings.TrimPrefix(d.ID, prefix), true
}

func resolveCards(id string, path []string, byID map[string]Deck, alias map[string]string) []card.Card {
	for _, seen := range path {
		if seen == id {
			logErrf("circular deck dependency: %s -> %s\n", strings.Join(path, " -> "), id)
			return nil
		}
	}
	d, ok := byID[id]
	if !ok {
		logErrf("deck not found: %s\n", id)
		return nil
	}

	next := append(append([]string(nil), path...), id)
	var all []card.Card
	for _, ref := range d.Extends {
		canonical, ok := alias[ref]
		if !ok {
			logErrf("extended deck not found: %s (referenced by %s)\n", ref, id)
			continue
		}
		all = append(all, resolveCards(canonical, next, byID, alias)...)
	}
	return append(all, d.Cards...)
}

func dedupe(cards []card.Card) []card.Card {
	seen := make(map[string]struct{}, len(cards))
	out := make([]card.Card, 0, len(cards))
	for _, c := range cards {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

package deck

import (
	"testing"

	"github.com/verte-zerg/guessup/internal/card"
)

func labels(texts ...string) []card.Card {
	cards := make([]card.Card, len(texts))
	for i, t := range texts {
		cards[i] = card.Label(t)
	}
	return cards
}

func cardTexts(cards []card.Card) []string {
	texts := make([]string, len(cards))
	for i, c := range cards {
		texts[i] = c.Display()
	}
	return texts
}

func assertCards(t *testing.T, got []card.Card, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d cards %v, got %v", len(want), want, cardTexts(got))
	}
	for i, text := range want {
		if got[i].Display() != text {
			t.Fatalf("card %d: expected %q, got %q", i, text, got[i].Display())
		}
	}
}

func mustFind(t *testing.T, decks []Deck, id string) Deck {
	t.Helper()
	d, ok := Find(decks, id)
	if !ok {
		t.Fatalf("deck %s not found", id)
	}
	return d
}

func TestResolveConcatenatesAncestorsFirst(t *testing.T) {
	raw := []Deck{
		{ID: "en-base", Locale: "en", Cards: labels("a", "b")},
		{ID: "en-child", Locale: "en", Extends: []string{"en-base"}, Cards: labels("c")},
	}
	resolved := Resolve(raw)
	assertCards(t, mustFind(t, resolved, "en-child").Cards, "a", "b", "c")
}

func TestResolveAcceptsSlashSpelling(t *testing.T) {
	raw := []Deck{
		{ID: "en-base", Locale: "en", Cards: labels("a")},
		{ID: "en-child", Locale: "en", Extends: []string{"en/base"}, Cards: labels("b")},
	}
	resolved := Resolve(raw)
	assertCards(t, mustFind(t, resolved, "en-child").Cards, "a", "b")
}

func TestResolveDiamondIncludesAncestorOnce(t *testing.T) {
	raw := []Deck{
		{ID: "en-d", Locale: "en", Cards: labels("shared")},
		{ID: "en-b", Locale: "en", Extends: []string{"en-d"}, Cards: labels("b")},
		{ID: "en-c", Locale: "en", Extends: []string{"en-d"}, Cards: labels("c")},
		{ID: "en-a", Locale: "en", Extends: []string{"en-b", "en-c"}, Cards: labels("a")},
	}
	resolved := Resolve(raw)
	assertCards(t, mustFind(t, resolved, "en-a").Cards, "shared", "b", "c", "a")
}

func TestResolveSelfExtensionContributesNothing(t *testing.T) {
	raw := []Deck{
		{ID: "en-loop", Locale: "en", Extends: []string{"en-loop"}, Cards: labels("x", "y")},
	}
	resolved := Resolve(raw)
	assertCards(t, mustFind(t, resolved, "en-loop").Cards, "x", "y")
}

func TestResolveCycleTerminates(t *testing.T) {
	raw := []Deck{
		{ID: "en-a", Locale: "en", Extends: []string{"en-b"}, Cards: labels("a")},
		{ID: "en-b", Locale: "en", Extends: []string{"en-a"}, Cards: labels("b")},
	}
	resolved := Resolve(raw)
	// The cyclic branch contributes zero cards; each deck still resolves.
	assertCards(t, mustFind(t, resolved, "en-a").Cards, "b", "a")
	assertCards(t, mustFind(t, resolved, "en-b").Cards, "a", "b")
}

func TestResolveUnknownReferenceContributesNothing(t *testing.T) {
	raw := []Deck{
		{ID: "en-a", Locale: "en", Extends: []string{"en-missing"}, Cards: labels("a")},
	}
	resolved := Resolve(raw)
	assertCards(t, mustFind(t, resolved, "en-a").Cards, "a")
}

func TestResolveDeduplicatesStructurally(t *testing.T) {
	raw := []Deck{
		{ID: "en-base", Locale: "en", Cards: []card.Card{
			card.Label("Tango"),
			{Text: "Tango", Subtext: "dance"},
		}},
		{ID: "en-child", Locale: "en", Extends: []string{"en-base"}, Cards: []card.Card{
			card.Label("Tango"),
			{Text: "Tango", Subtext: "dance"},
			card.Label("Salsa"),
		}},
	}
	resolved := Resolve(raw)
	assertCards(t, mustFind(t, resolved, "en-child").Cards, "Tango", "Tango (dance)", "Salsa")
}

func TestResolveSortsByID(t *testing.T) {
	raw := []Deck{
		{ID: "en-z", Locale: "en"},
		{ID: "en-a", Locale: "en"},
		{ID: "de-m", Locale: "de"},
	}
	resolved := Resolve(raw)
	ids := []string{resolved[0].ID, resolved[1].ID, resolved[2].ID}
	want := []string{"de-m", "en-a", "en-z"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, ids)
		}
	}
}

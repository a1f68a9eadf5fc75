// Package sampler draws cards from a deck without repetition until the
// deck is exhausted, then reshuffles.
package sampler

import (
	"errors"
	"math/rand"
	"time"

	"github.com/verte-zerg/guessup/internal/card"
)

// ErrEmptyDeck is returned when a draw is requested from a deck with no
// cards at all.
var ErrEmptyDeck = errors.New("deck has no cards")

// Sampler maintains a shuffled draw pool over a fixed card list.
type Sampler struct {
	deck []card.Card
	pool []card.Card
	used map[string]struct{}
	rnd  *rand.Rand
}

// New returns a Sampler over the given cards, seeded with the current time.
func New(deck []card.Card) *Sampler {
	return NewWithRand(deck, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand returns a Sampler using the provided random source.
func NewWithRand(deck []card.Card, rnd *rand.Rand) *Sampler {
	return &Sampler{
		deck: append([]card.Card(nil), deck...),
		used: map[string]struct{}{},
		rnd:  rnd,
	}
}

// Next draws the next card. Every card is drawn once before any repeats;
// once the whole deck has been used, the used set resets and cards may
// appear again.
func (s *Sampler) Next() (card.Card, error) {
	if len(s.deck) == 0 {
		return card.Card{}, ErrEmptyDeck
	}
	if len(s.pool) == 0 {
		s.refill()
	}
	drawn := s.pool[len(s.pool)-1]
	s.pool = s.pool[:len(s.pool)-1]
	s.used[drawn.Key()] = struct{}{}
	return drawn, nil
}

// refill rebuilds the pool from cards not yet used, or from the full
// deck when everything has been used, and shuffles it.
func (s *Sampler) refill() {
	var unused []card.Card
	for _, c := range s.deck {
		if _, ok := s.used[c.Key()]; !ok {
			unused = append(unused, c)
		}
	}
	if len(unused) > 0 {
		s.pool = unused
	} else {
		s.pool = append([]card.Card(nil), s.deck...)
		s.used = map[string]struct{}{}
	}
	s.shuffle(s.pool)
}

// shuffle performs a uniform in-place Fisher-Yates shuffle.
func (s *Sampler) shuffle(cards []card.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// Remaining reports how many cards are left in the current pool.
func (s *Sampler) Remaining() int {
	return len(s.pool)
}

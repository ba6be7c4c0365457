package deck

import (
	"errors"
	"math/rand"
)

// DefaultDecks is the number of standard decks in a freshly built shoe.
const DefaultDecks = 6

// ErrEmptyShoe is returned by Draw when no cards remain. The table
// engine replenishes the shoe before dealing, so reaching this mid
// round indicates an engine bug.
var ErrEmptyShoe = errors.New("deck: draw from empty shoe")

// Shoe is an ordered, shuffled multi-deck card source. Cards are drawn
// from the front; the shoe never holds more than decks*DeckSize cards.
//
// Shoe is not safe for concurrent use; the table engine serializes all
// access to it.
type Shoe struct {
	cards []Card
	decks int
	rng   *rand.Rand
}

// NewShoe returns a built and shuffled shoe of the given number of
// standard decks. The caller provides the random source so tests can
// seed it deterministically.
func NewShoe(decks int, rng *rand.Rand) *Shoe {
	if decks <= 0 {
		decks = DefaultDecks
	}
	s := &Shoe{
		cards: make([]Card, 0, decks*DeckSize),
		decks: decks,
		rng:   rng,
	}
	s.build()
	s.Shuffle()
	return s
}

// NewStackedShoe returns a shoe containing exactly the given cards in
// the given draw order. Intended for tests that need scripted deals.
func NewStackedShoe(cards ...Card) *Shoe {
	return &Shoe{cards: append([]Card(nil), cards...), decks: 1}
}

// build appends decks ordered copies of the standard deck.
func (s *Shoe) build() {
	for d := 0; d < s.decks; d++ {
		for _, suit := range suits {
			for _, r := range ranks {
				s.cards = append(s.cards, Card{Rank: r.value, Symbol: r.symbol, Suit: suit})
			}
		}
	}
}

// Shuffle applies a Fisher-Yates permutation across the entire shoe.
func (s *Shoe) Shuffle() {
	if s.rng == nil {
		return
	}
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
}

// Draw removes and returns the frontmost card.
func (s *Shoe) Draw() (Card, error) {
	if len(s.cards) == 0 {
		return Card{}, ErrEmptyShoe
	}
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c, nil
}

// Size returns the number of cards remaining.
func (s *Shoe) Size() int { return len(s.cards) }

// Empty reports whether the shoe is out of cards.
func (s *Shoe) Empty() bool { return len(s.cards) == 0 }

// Reset rebuilds and shuffles the shoe if it is empty. No-op otherwise.
func (s *Shoe) Reset() {
	if !s.Empty() {
		return
	}
	s.cards = s.cards[:0]
	s.build()
	s.Shuffle()
}

// Replenish guarantees at least need cards are available. If fewer
// remain, the remainder is discarded and a fresh shuffled full set is
// built in its place, keeping the shoe within its decks*DeckSize bound.
// The engine calls this with the worst-case draw count before dealing
// so a round can never exhaust the shoe.
func (s *Shoe) Replenish(need int) {
	if len(s.cards) >= need {
		return
	}
	s.cards = s.cards[:0]
	s.build()
	s.Shuffle()
}

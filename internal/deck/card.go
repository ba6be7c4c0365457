// Package deck provides the card primitives for the table: the
// multi-deck shoe the dealer draws from and the hand value rules.
package deck

// Suit characters as they appear in card codes.
const (
	Spades   = byte('S')
	Hearts   = byte('H')
	Clubs    = byte('C')
	Diamonds = byte('D')
)

var suits = [4]byte{Spades, Hearts, Clubs, Diamonds}

// One standard deck in build order. Aces are valued 11 nominally; the
// hand total demotes them to 1 as needed.
var ranks = [13]struct {
	value  int
	symbol byte
}{
	{11, 'A'},
	{2, '2'}, {3, '3'}, {4, '4'}, {5, '5'}, {6, '6'},
	{7, '7'}, {8, '8'}, {9, '9'},
	{10, 'T'}, {10, 'J'}, {10, 'Q'}, {10, 'K'},
}

// DeckSize is the number of cards in one standard deck.
const DeckSize = len(ranks) * len(suits)

// Card is a single playing card. Immutable once drawn.
type Card struct {
	// Rank is the nominal blackjack value, 2 through 11 (Ace = 11).
	Rank int
	// Symbol is the rank character: one of 2-9, T, J, Q, K, A.
	Symbol byte
	// Suit is one of the four suit characters.
	Suit byte
}

// Code returns the two-character token used in status text, e.g. "AS"
// for the ace of spades.
func (c Card) Code() string {
	return string([]byte{c.Symbol, c.Suit})
}

func (c Card) String() string { return c.Code() }

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool { return c.Symbol == 'A' }

package deck

import "strings"

// Hand is one grouping of drawn cards belonging to a seat or the
// dealer. The total and its derived flags are recomputed on every Add.
type Hand struct {
	cards []Card
	total int
	soft  bool
}

// Add appends a card to the hand.
func (h *Hand) Add(c Card) {
	h.cards = append(h.cards, c)
	h.recompute()
}

// recompute sums the hand with every ace counted as 11, then demotes
// aces by 10 each only while the total is over 21.
func (h *Hand) recompute() {
	total, aces := 0, 0
	for _, c := range h.cards {
		total += c.Rank
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	h.total = total
	h.soft = aces > 0
}

// Total returns the best value of the hand.
func (h *Hand) Total() int { return h.total }

// Busted reports whether the hand exceeds 21.
func (h *Hand) Busted() bool { return h.total > 21 }

// Blackjack reports whether the hand is a natural: exactly two cards
// totaling 21.
func (h *Hand) Blackjack() bool {
	return len(h.cards) == 2 && h.total == 21
}

// Soft reports whether an ace is still counted as 11.
func (h *Hand) Soft() bool { return h.soft }

// Size returns the number of cards in the hand.
func (h *Hand) Size() int { return len(h.cards) }

// Cards returns the cards in draw order.
func (h *Hand) Cards() []Card { return h.cards }

// Pair reports whether the hand is exactly two cards of equal rank
// value, which is the split eligibility rule.
func (h *Hand) Pair() bool {
	return len(h.cards) == 2 && h.cards[0].Rank == h.cards[1].Rank
}

// SplitOff removes and returns the second card of a two-card hand,
// leaving a one-card hand behind. Callers must check Pair first.
func (h *Hand) SplitOff() Card {
	c := h.cards[1]
	h.cards = h.cards[:1]
	h.recompute()
	return c
}

// Codes returns the hand's card tokens separated by spaces, as used in
// the status-text grammar.
func (h *Hand) Codes() string {
	codes := make([]string, len(h.cards))
	for i, c := range h.cards {
		codes[i] = c.Code()
	}
	return strings.Join(codes, " ")
}

package deck

import "testing"

func card(rank int, symbol byte) Card {
	return Card{Rank: rank, Symbol: symbol, Suit: Spades}
}

func TestHandTotals(t *testing.T) {
	tests := []struct {
		name      string
		cards     []Card
		total     int
		soft      bool
		busted    bool
		blackjack bool
	}{
		{
			name:  "hard total",
			cards: []Card{card(10, 'T'), card(9, '9')},
			total: 19,
		},
		{
			name:      "ace and king is blackjack",
			cards:     []Card{card(11, 'A'), card(10, 'K')},
			total:     21,
			soft:      true,
			blackjack: true,
		},
		{
			name:  "three sevens is twenty one but not blackjack",
			cards: []Card{card(7, '7'), card(7, '7'), card(7, '7')},
			total: 21,
		},
		{
			name:  "ace demotes only as needed",
			cards: []Card{card(11, 'A'), card(11, 'A'), card(9, '9')},
			total: 21,
			soft:  true,
		},
		{
			name:  "both aces demote under pressure",
			cards: []Card{card(11, 'A'), card(11, 'A'), card(10, 'K'), card(9, '9')},
			total: 21,
		},
		{
			name:  "soft seventeen",
			cards: []Card{card(11, 'A'), card(6, '6')},
			total: 17,
			soft:  true,
		},
		{
			name:   "bust",
			cards:  []Card{card(10, 'T'), card(9, '9'), card(5, '5')},
			total:  24,
			busted: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Hand{}
			for _, c := range tt.cards {
				h.Add(c)
			}

			if h.Total() != tt.total {
				t.Errorf("Total() = %d, want %d", h.Total(), tt.total)
			}
			if h.Soft() != tt.soft {
				t.Errorf("Soft() = %v, want %v", h.Soft(), tt.soft)
			}
			if h.Busted() != tt.busted {
				t.Errorf("Busted() = %v, want %v", h.Busted(), tt.busted)
			}
			if h.Blackjack() != tt.blackjack {
				t.Errorf("Blackjack() = %v, want %v", h.Blackjack(), tt.blackjack)
			}
		})
	}
}

func TestHandPairAndSplitOff(t *testing.T) {
	h := &Hand{}
	h.Add(Card{Rank: 8, Symbol: '8', Suit: Spades})
	h.Add(Card{Rank: 8, Symbol: '8', Suit: Hearts})

	if !h.Pair() {
		t.Fatal("two eights should be a splittable pair")
	}

	second := h.SplitOff()
	if second != (Card{Rank: 8, Symbol: '8', Suit: Hearts}) {
		t.Errorf("SplitOff() = %v, want the second eight", second)
	}
	if h.Size() != 1 || h.Total() != 8 {
		t.Errorf("after split: size = %d total = %d, want 1 and 8", h.Size(), h.Total())
	}
	if h.Pair() {
		t.Error("a one-card hand must not report as a pair")
	}
}

func TestHandUnequalRanksAreNotAPair(t *testing.T) {
	h := &Hand{}
	h.Add(card(10, 'T'))
	h.Add(card(9, '9'))

	if h.Pair() {
		t.Error("ten and nine should not be splittable")
	}
}

func TestHandCodes(t *testing.T) {
	h := &Hand{}
	h.Add(Card{Rank: 11, Symbol: 'A', Suit: Spades})
	h.Add(Card{Rank: 10, Symbol: 'T', Suit: Diamonds})

	if got := h.Codes(); got != "AS TD" {
		t.Errorf("Codes() = %q, want %q", got, "AS TD")
	}
}

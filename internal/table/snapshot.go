package table

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MarshalJSON renders the phase by name in the status API.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// HandView is the externally visible state of one hand.
type HandView struct {
	Index   int     `json:"index"`
	Cards   string  `json:"cards"`
	Total   int     `json:"total"`
	Bet     int     `json:"bet"`
	Outcome Outcome `json:"outcome"`
}

// SeatView is the externally visible state of one seat.
type SeatView struct {
	ID      int        `json:"id"`
	Credits int        `json:"credits"`
	Hands   []HandView `json:"hands,omitempty"`
}

// Snapshot is a consistent view of the table taken under the engine
// lock: the broadcastable status text plus the structured form served
// by the status API.
type Snapshot struct {
	Phase Phase `json:"phase"`
	Turn  int   `json:"turn"`
	// CanSplit and CanDouble describe the current turn seat's active
	// hand; clients gate their controls on these plus the turn id.
	CanSplit  bool       `json:"canSplit"`
	CanDouble bool       `json:"canDouble"`
	Status    string     `json:"-"`
	Dealer    []HandView `json:"dealer,omitempty"`
	Seats     []SeatView `json:"seats"`
}

// Snapshot renders the current table state. The status text follows the
// token grammar the presentation layer parses: one
// "<-- Player <id> hand: <index> <code> <code> ..." listing per hand,
// with the dealer rendered as player 0.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Phase: e.phase,
		Turn:  e.turn,
	}

	roundLive := e.phase == PlayerTurn || e.phase == DealerTurn
	if roundLive {
		snap.Status = e.statusText()
		snap.Dealer = []HandView{{Cards: e.dealer.Codes(), Total: e.dealer.Total()}}
	} else if e.lastStatus != "" {
		// Between settlement and the next deal the settled round's final
		// hands stay visible, dealer draws included.
		snap.Status = e.lastStatus
		snap.Dealer = []HandView{{Cards: e.lastDealer.Codes(), Total: e.lastDealer.Total()}}
	}

	for _, id := range e.sortedIDs() {
		seat := e.seats[id]
		view := SeatView{ID: seat.ID, Credits: seat.Credits}
		for i, sh := range seat.hands {
			view.Hands = append(view.Hands, HandView{
				Index:   i,
				Cards:   sh.hand.Codes(),
				Total:   sh.hand.Total(),
				Bet:     sh.bet,
				Outcome: sh.outcome,
			})
		}
		snap.Seats = append(snap.Seats, view)
	}

	if e.phase == PlayerTurn {
		if seat, ok := e.seats[e.turn]; ok && seat.active < len(seat.hands) {
			sh := seat.hands[seat.active]
			snap.CanSplit = sh.hand.Pair() && !seat.split && seat.Credits >= sh.bet
			snap.CanDouble = sh.hand.Size() == 2 && !sh.doubled && !seat.split && seat.Credits >= sh.bet
		}
	}

	return snap
}

// statusText renders every dealt hand in the token grammar, dealer
// first as player 0. Callers hold the lock.
func (e *Engine) statusText() string {
	var status strings.Builder
	fmt.Fprintf(&status, "<-- Player 0 hand: 0 %s \n", e.dealer.Codes())
	for _, id := range e.sortedIDs() {
		seat := e.seats[id]
		for i, sh := range seat.hands {
			fmt.Fprintf(&status, "<-- Player %d hand: %d %s \n", seat.ID, i, sh.hand.Codes())
		}
	}
	return status.String()
}

// Package table implements the dealer-side state machine for a single
// blackjack table: seats, bets, turn order, dealer play, and
// settlement. The engine is purely in-memory game logic; it performs no
// I/O and owns all table state. Callers serialize access through its
// mutex-guarded methods and broadcast the resulting snapshots.
package table

import (
	"errors"
	"sort"
	"sync"

	"royale/internal/deck"
)

// Phase is the table's position in the round lifecycle.
type Phase int

const (
	// Waiting means no active round; joins are seated immediately.
	Waiting Phase = iota
	// Betting means at least one seat has committed a bet and the
	// table is collecting the rest.
	Betting
	// PlayerTurn means one seat's hand is awaiting a decision.
	PlayerTurn
	// DealerTurn means all player hands are decided and the dealer
	// is drawing.
	DealerTurn
	// Settlement means hands are being compared and credits adjusted.
	// It resolves synchronously back to Waiting.
	Settlement
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Betting:
		return "betting"
	case PlayerTurn:
		return "player_turn"
	case DealerTurn:
		return "dealer_turn"
	case Settlement:
		return "settlement"
	}
	return "unknown"
}

// Turn sentinels. Seat ids start at 1, so these never collide.
const (
	// NoTurn means no seat is acting (waiting or betting).
	NoTurn = 0
	// DealerSeat marks the dealer as the current actor.
	DealerSeat = -1
)

// Outcome of one hand at settlement. The numeric values are the codes
// the presentation layer has always used.
type Outcome int

const (
	OutcomeNone Outcome = 0
	OutcomeWin  Outcome = 1
	OutcomeLoss Outcome = -1
	OutcomePush Outcome = 2
)

// Rules are the configurable table parameters.
type Rules struct {
	// Decks in the shoe.
	Decks int
	// StartingCredits granted to a seat with no stored balance.
	StartingCredits int
	// MinBet and MaxBet bound a single bet. MaxBet of 0 means no cap.
	MinBet int
	MaxBet int
	// DealerHitsSoft17 selects the soft-17 policy. Default is to stand.
	DealerHitsSoft17 bool
	// EvictBankrupt removes zero-credit seats at settlement instead of
	// letting them sit until they leave.
	EvictBankrupt bool
}

// DefaultRules returns the table parameters used when the config is silent.
func DefaultRules() Rules {
	return Rules{
		Decks:           deck.DefaultDecks,
		StartingCredits: 100,
		MinBet:          1,
	}
}

// Action validation errors. Every rejection is reported back to the
// originating seat; none of them change table state.
var (
	ErrNotYourTurn         = errors.New("table: action from a seat that is not the current turn")
	ErrIllegalAction       = errors.New("table: action not legal for the current hand")
	ErrInvalidBet          = errors.New("table: bet must be positive and within table limits")
	ErrInsufficientCredits = errors.New("table: bet exceeds available credits")
	ErrUnknownSeat         = errors.New("table: no such seat")
)

// seatHand is one hand owned by a seat, with its bet and decision state.
type seatHand struct {
	hand        deck.Hand
	bet         int
	stood       bool
	surrendered bool
	doubled     bool
	outcome     Outcome
}

// decided reports whether the hand no longer needs a player decision.
func (sh *seatHand) decided() bool {
	return sh.stood || sh.surrendered || sh.hand.Busted() || sh.hand.Blackjack()
}

// Seat is one connected player's slot at the table.
type Seat struct {
	ID      int
	Credits int

	hands    []*seatHand
	active   int
	inRound  bool
	declined bool
	sitOut   bool
	split    bool
}

// SeatResult is the settlement report delivered to one seat.
type SeatResult struct {
	// Outcomes holds one code per hand, in hand order.
	Outcomes []Outcome
	// Credits is the seat's balance after settlement.
	Credits int
	// Evicted is set when the bankrupt-eviction policy removed the seat.
	Evicted bool
}

// Engine drives one table. All methods are safe for concurrent use;
// every mutation runs under a single lock, and the lock is never held
// across I/O.
type Engine struct {
	mu sync.Mutex

	rules  Rules
	shoe   *deck.Shoe
	dealer deck.Hand
	seats  map[int]*Seat
	phase  Phase
	turn   int
	nextID int

	// results holds each seat's settlement report from the most recent
	// round, cleared when collected or when the next deal starts.
	results map[int]*SeatResult

	// lastStatus and lastDealer preserve the settled round's final hands
	// so they remain observable after the table returns to Waiting.
	// Cleared when the next deal starts.
	lastStatus string
	lastDealer deck.Hand
}

// New returns an engine for a single table. The shoe is injected so
// tests can script the deal order.
func New(rules Rules, shoe *deck.Shoe) *Engine {
	if rules.StartingCredits <= 0 {
		rules.StartingCredits = DefaultRules().StartingCredits
	}
	return &Engine{
		rules:   rules,
		shoe:    shoe,
		seats:   make(map[int]*Seat),
		phase:   Waiting,
		turn:    NoTurn,
		nextID:  1,
		results: make(map[int]*SeatResult),
	}
}

// AddSeat creates a seat for a newly joined connection and returns its
// id. credits of 0 grants the configured starting balance (used for
// first-time players); a positive value restores a stored balance.
// Seats created mid-round sit out until the table returns to Waiting.
func (e *Engine) AddSeat(credits int) *Seat {
	e.mu.Lock()
	defer e.mu.Unlock()

	if credits <= 0 {
		credits = e.rules.StartingCredits
	}
	seat := &Seat{
		ID:      e.nextID,
		Credits: credits,
		sitOut:  e.phase != Waiting,
	}
	e.nextID++
	e.seats[seat.ID] = seat
	return seat
}

// RemoveSeat removes a seat on leave or disconnect. Any live hand is
// settled as a loss of its bet (the bet is already escrowed). The
// seat's credit balance is returned for disconnection bookkeeping. If
// it was this seat's turn, the turn advances immediately so the table
// cannot stall on a vanished player.
func (e *Engine) RemoveSeat(id int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, ok := e.seats[id]
	if !ok {
		return 0, ErrUnknownSeat
	}

	credits := seat.Credits
	wasTurn := e.phase == PlayerTurn && e.turn == id
	wasBetting := e.phase == Betting && !seat.inRound && !seat.declined && !seat.sitOut
	delete(e.seats, id)
	delete(e.results, id)

	if len(e.seatsInRound()) == 0 && e.phase != Waiting {
		// Last active player gone mid-round; nothing left to settle.
		e.resetRound()
		return credits, nil
	}

	if wasTurn {
		e.advanceTurn(id)
	} else if wasBetting {
		// The departed seat may have been the last straggler holding
		// up the deal.
		e.maybeDeal()
	}
	return credits, nil
}

// PlaceBet commits a bet for the coming round and escrows it from the
// seat's credits. The first accepted bet moves the table from Waiting
// to Betting; the deal happens once every seated player has bet or
// declined.
func (e *Engine) PlaceBet(id, amount int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, ok := e.seats[id]
	if !ok {
		return ErrUnknownSeat
	}
	if e.phase != Waiting && e.phase != Betting {
		return ErrIllegalAction
	}
	if seat.sitOut || seat.inRound || seat.declined {
		return ErrIllegalAction
	}
	if amount <= 0 || amount < e.rules.MinBet || (e.rules.MaxBet > 0 && amount > e.rules.MaxBet) {
		return ErrInvalidBet
	}
	if amount > seat.Credits {
		return ErrInsufficientCredits
	}

	seat.Credits -= amount
	seat.hands = []*seatHand{{bet: amount}}
	seat.active = 0
	seat.inRound = true
	e.phase = Betting

	e.maybeDeal()
	return nil
}

// Decline opts the seat out of the coming round.
func (e *Engine) Decline(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, ok := e.seats[id]
	if !ok {
		return ErrUnknownSeat
	}
	if e.phase != Waiting && e.phase != Betting {
		return ErrIllegalAction
	}
	if seat.inRound || seat.declined {
		return ErrIllegalAction
	}
	seat.declined = true
	e.maybeDeal()
	return nil
}

// Hit draws one card into the current hand. A bust marks the hand lost
// and advances the turn.
func (e *Engine) Hit(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, sh, err := e.currentHand(id)
	if err != nil {
		return err
	}

	card, err := e.shoe.Draw()
	if err != nil {
		return err
	}
	sh.hand.Add(card)

	if sh.hand.Busted() {
		sh.outcome = OutcomeLoss
		e.advanceHand(seat)
	}
	return nil
}

// Stand freezes the current hand and advances the turn.
func (e *Engine) Stand(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, sh, err := e.currentHand(id)
	if err != nil {
		return err
	}
	sh.stood = true
	e.advanceHand(seat)
	return nil
}

// DoubleDown doubles the bet, draws exactly one card, and stands the
// hand busted or not. Only legal as the first decision on a two-card
// hand, never after a split, and only with credits covering the
// matched bet.
func (e *Engine) DoubleDown(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, sh, err := e.currentHand(id)
	if err != nil {
		return err
	}
	if sh.hand.Size() != 2 || sh.doubled || seat.split {
		return ErrIllegalAction
	}
	if seat.Credits < sh.bet {
		return ErrInsufficientCredits
	}

	seat.Credits -= sh.bet
	sh.bet *= 2
	sh.doubled = true

	card, err := e.shoe.Draw()
	if err != nil {
		return err
	}
	sh.hand.Add(card)

	if sh.hand.Busted() {
		sh.outcome = OutcomeLoss
	}
	sh.stood = true
	e.advanceHand(seat)
	return nil
}

// Split turns a two-card pair into two hands, each keeping one of the
// original cards, matches the bet on the second hand, and draws one new
// card into each. The turn continues on the first hand. A seat may
// split once per round.
func (e *Engine) Split(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, sh, err := e.currentHand(id)
	if err != nil {
		return err
	}
	if !sh.hand.Pair() || seat.split || len(seat.hands) != 1 {
		return ErrIllegalAction
	}
	if seat.Credits < sh.bet {
		return ErrInsufficientCredits
	}

	seat.Credits -= sh.bet
	second := &seatHand{bet: sh.bet}
	second.hand.Add(sh.hand.SplitOff())
	seat.hands = append(seat.hands, second)
	seat.split = true

	for _, h := range seat.hands {
		card, err := e.shoe.Draw()
		if err != nil {
			return err
		}
		h.hand.Add(card)
	}

	// A post-split two-card 21 plays like any other hand; it is not a
	// natural. decided() treats it as one, so advance past it here if
	// both split hands came up 21.
	if seat.hands[seat.active].decided() {
		e.advanceHand(seat)
	}
	return nil
}

// Surrender forfeits half the bet and retires the hand. Only legal as
// the first decision on an unsplit hand.
func (e *Engine) Surrender(id int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, sh, err := e.currentHand(id)
	if err != nil {
		return err
	}
	if sh.hand.Size() != 2 || sh.doubled || seat.split {
		return ErrIllegalAction
	}

	seat.Credits += sh.bet / 2
	sh.surrendered = true
	sh.outcome = OutcomeLoss
	e.advanceHand(seat)
	return nil
}

// ForceStand stands the current hand on behalf of the seat. Used by the
// turn timer when a player's decision deadline expires. A no-op unless
// it is actually that seat's turn.
func (e *Engine) ForceStand(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	seat, sh, err := e.currentHand(id)
	if err != nil {
		return false
	}
	sh.stood = true
	e.advanceHand(seat)
	return true
}

// TakeResults returns and clears the per-seat settlement reports from
// the most recently completed round. Empty between rounds.
func (e *Engine) TakeResults() map[int]*SeatResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.results) == 0 {
		return nil
	}
	out := e.results
	e.results = make(map[int]*SeatResult)
	return out
}

// currentHand validates turn ownership and returns the acting seat and
// hand. Callers hold the lock.
func (e *Engine) currentHand(id int) (*Seat, *seatHand, error) {
	seat, ok := e.seats[id]
	if !ok {
		return nil, nil, ErrUnknownSeat
	}
	if e.phase != PlayerTurn || e.turn != id {
		return nil, nil, ErrNotYourTurn
	}
	return seat, seat.hands[seat.active], nil
}

// sortedIDs returns all seat ids in ascending order, which is the turn order.
func (e *Engine) sortedIDs() []int {
	ids := make([]int, 0, len(e.seats))
	for id := range e.seats {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// seatsInRound returns the seats with an escrowed bet, in turn order.
func (e *Engine) seatsInRound() []*Seat {
	var active []*Seat
	for _, id := range e.sortedIDs() {
		if seat := e.seats[id]; seat.inRound {
			active = append(active, seat)
		}
	}
	return active
}

// maybeDeal checks whether betting has closed (every eligible seat has
// bet or declined) and if so deals the round. Callers hold the lock.
func (e *Engine) maybeDeal() {
	if e.phase != Betting {
		return
	}
	for _, seat := range e.seats {
		if !seat.sitOut && !seat.inRound && !seat.declined {
			return
		}
	}
	e.deal()
}

// deal gives two cards to every active seat and two to the dealer, then
// opens the first player turn. The shoe is topped up to the worst-case
// need for the initial deal first so the deal itself cannot fail.
func (e *Engine) deal() {
	active := e.seatsInRound()
	if len(active) == 0 {
		e.resetRound()
		return
	}

	e.results = make(map[int]*SeatResult)
	e.lastStatus = ""
	e.lastDealer = deck.Hand{}
	e.shoe.Replenish(2 * (len(active) + 1))

	for _, seat := range active {
		for i := 0; i < 2; i++ {
			card, _ := e.shoe.Draw()
			seat.hands[0].hand.Add(card)
		}
	}
	e.dealer = deck.Hand{}
	for i := 0; i < 2; i++ {
		card, _ := e.shoe.Draw()
		e.dealer.Add(card)
	}

	e.phase = PlayerTurn
	e.advanceTurn(0)
}

// advanceHand moves the seat to its next undecided hand, or advances
// the turn to the next seat when none remain.
func (e *Engine) advanceHand(seat *Seat) {
	for seat.active++; seat.active < len(seat.hands); seat.active++ {
		if !seat.hands[seat.active].decided() {
			return
		}
	}
	e.advanceTurn(seat.ID)
}

// advanceTurn hands the turn to the first seat after the given id (in
// ascending order) that still has an undecided hand, or moves to the
// dealer when none remain. Called with 0 to open the first turn.
func (e *Engine) advanceTurn(after int) {
	for _, id := range e.sortedIDs() {
		if id <= after {
			continue
		}
		seat := e.seats[id]
		if !seat.inRound {
			continue
		}
		for i, sh := range seat.hands {
			if !sh.decided() {
				seat.active = i
				e.turn = id
				e.phase = PlayerTurn
				return
			}
		}
	}
	e.playDealer()
}

// playDealer draws the dealer's hand to completion and settles the
// round. The dealer hits below 17 and, if configured, on soft 17.
func (e *Engine) playDealer() {
	e.phase = DealerTurn
	e.turn = DealerSeat

	for {
		total := e.dealer.Total()
		if total < 17 || (total == 17 && e.dealer.Soft() && e.rules.DealerHitsSoft17) {
			card, err := e.shoe.Draw()
			if err != nil {
				// The pre-deal replenish makes this unreachable short
				// of a scripted shoe; settle with what the dealer has.
				break
			}
			e.dealer.Add(card)
			continue
		}
		break
	}

	e.settle()
}

// settle compares every hand to the dealer's, pays out, records the
// per-seat results, and returns the table to Waiting. Credits are
// adjusted atomically per seat before the phase changes.
func (e *Engine) settle() {
	e.phase = Settlement
	dealerBusted := e.dealer.Busted()
	dealerNatural := e.dealer.Blackjack()
	dealerTotal := e.dealer.Total()

	for _, seat := range e.seatsInRound() {
		result := &SeatResult{}
		for _, sh := range seat.hands {
			switch {
			case sh.surrendered || sh.hand.Busted():
				sh.outcome = OutcomeLoss
			case dealerBusted || sh.hand.Total() > dealerTotal:
				sh.outcome = OutcomeWin
				if sh.hand.Blackjack() && !seat.split && !dealerNatural {
					// Natural pays 3:2 on top of the returned stake.
					seat.Credits += sh.bet + (sh.bet*3)/2
				} else {
					seat.Credits += 2 * sh.bet
				}
			case sh.hand.Total() == dealerTotal:
				sh.outcome = OutcomePush
				seat.Credits += sh.bet
			default:
				sh.outcome = OutcomeLoss
			}
			result.Outcomes = append(result.Outcomes, sh.outcome)
		}
		result.Credits = seat.Credits
		e.results[seat.ID] = result
	}

	// Render the final hands before they are cleared; broadcasts taken
	// between now and the next deal carry this text so every player sees
	// how the dealer's hand resolved.
	e.lastStatus = e.statusText()
	e.lastDealer = e.dealer

	if e.rules.EvictBankrupt {
		for id, seat := range e.seats {
			if seat.Credits == 0 {
				if r, ok := e.results[id]; ok {
					r.Evicted = true
				}
				delete(e.seats, id)
			}
		}
	}

	e.resetRound()
}

// resetRound clears per-round state and returns the table to Waiting.
func (e *Engine) resetRound() {
	for _, seat := range e.seats {
		seat.hands = nil
		seat.active = 0
		seat.inRound = false
		seat.declined = false
		seat.sitOut = false
		seat.split = false
	}
	e.dealer = deck.Hand{}
	e.phase = Waiting
	e.turn = NoTurn
}

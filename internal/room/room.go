// Package room implements the membership registry and message delivery
// shared by every connected session: ordered broadcast to the whole
// table, unicast to a single seat, and a bounded replay buffer that
// catches late joiners up on recent table state.
package room

import (
	"sync"

	"royale/internal/wire"
)

// maxRecentMessages bounds the replay buffer delivered to late joiners.
const maxRecentMessages = 100

// Participant is one deliverable member of the room. Sessions implement
// it on the server; tests substitute fakes.
type Participant interface {
	// SeatID identifies the participant's seat at the table.
	SeatID() int
	// Deliver enqueues a message for the participant. It must not
	// block on network I/O.
	Deliver(msg *wire.Message)
}

// Room is the delivery hub for a single table.
type Room struct {
	mu           sync.Mutex
	participants map[Participant]struct{}
	recent       []*wire.Message
}

func New() *Room {
	return &Room{participants: make(map[Participant]struct{})}
}

// Join replays the recent broadcast history to the participant and then
// registers it for future deliveries. Replay happens under the lock so
// no broadcast can interleave with the catch-up sequence.
func (r *Room) Join(p Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range r.recent {
		p.Deliver(msg)
	}
	r.participants[p] = struct{}{}
}

// Leave deregisters the participant. Subsequent deliveries skip it.
func (r *Room) Leave(p Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.participants, p)
}

// Len returns the number of registered participants.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

// Broadcast appends the message to the replay buffer, evicting the
// oldest entry beyond the cap, and delivers it to every participant.
// Holding the lock across the fan-out keeps the delivery order
// identical for all participants.
func (r *Room) Broadcast(msg *wire.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recent = append(r.recent, msg)
	for len(r.recent) > maxRecentMessages {
		r.recent = r.recent[1:]
	}

	for p := range r.participants {
		p.Deliver(msg)
	}
}

// Unicast delivers the message only to the participant holding seatID.
// Used for notifications that must not leak to other seats, such as the
// assigned seat id and per-seat settlement results. Unicasts are not
// recorded in the replay buffer.
func (r *Room) Unicast(msg *wire.Message, seatID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for p := range r.participants {
		if p.SeatID() == seatID {
			p.Deliver(msg)
		}
	}
}

// historyLen is exposed for tests.
func (r *Room) historyLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recent)
}

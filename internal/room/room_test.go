package room

import (
	"fmt"
	"testing"

	"royale/internal/wire"
)

type fakeParticipant struct {
	id       int
	received []*wire.Message
}

func (f *fakeParticipant) SeatID() int             { return f.id }
func (f *fakeParticipant) Deliver(m *wire.Message) { f.received = append(f.received, m) }

func message(body string) *wire.Message {
	m := &wire.Message{}
	m.SetBodyString(body)
	return m
}

func TestBroadcastReachesEveryParticipant(t *testing.T) {
	r := New()
	a := &fakeParticipant{id: 1}
	b := &fakeParticipant{id: 2}
	r.Join(a)
	r.Join(b)

	msg := message("table state")
	r.Broadcast(msg)

	for _, p := range []*fakeParticipant{a, b} {
		if len(p.received) != 1 || p.received[0] != msg {
			t.Errorf("seat %d received %d messages, want the broadcast", p.id, len(p.received))
		}
	}
}

func TestUnicastOnlyReachesTarget(t *testing.T) {
	r := New()
	a := &fakeParticipant{id: 1}
	b := &fakeParticipant{id: 2}
	r.Join(a)
	r.Join(b)

	r.Unicast(message("your seat id"), 2)

	if len(a.received) != 0 {
		t.Errorf("seat 1 received %d unicast messages meant for seat 2", len(a.received))
	}
	if len(b.received) != 1 {
		t.Errorf("seat 2 received %d messages, want 1", len(b.received))
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	r := New()
	a := &fakeParticipant{id: 1}
	r.Join(a)
	r.Leave(a)

	r.Broadcast(message("after leave"))

	if len(a.received) != 0 {
		t.Errorf("departed participant received %d messages, want 0", len(a.received))
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestLateJoinerReceivesReplay(t *testing.T) {
	r := New()
	first := message("first")
	second := message("second")
	r.Broadcast(first)
	r.Broadcast(second)

	late := &fakeParticipant{id: 3}
	r.Join(late)

	if len(late.received) != 2 {
		t.Fatalf("late joiner received %d messages, want 2", len(late.received))
	}
	if late.received[0] != first || late.received[1] != second {
		t.Error("replay order does not match broadcast order")
	}
}

func TestReplayBufferEvictsBeyondCap(t *testing.T) {
	r := New()
	for i := 0; i < maxRecentMessages+1; i++ {
		r.Broadcast(message(fmt.Sprintf("state %d", i)))
	}

	if got := r.historyLen(); got != maxRecentMessages {
		t.Fatalf("history length = %d, want %d", got, maxRecentMessages)
	}

	late := &fakeParticipant{id: 9}
	r.Join(late)

	if got := string(late.received[0].Body()); got != "state 1" {
		t.Errorf("oldest replayed message = %q, want %q (the 101st broadcast evicts the first)", got, "state 1")
	}
	if got := string(late.received[len(late.received)-1].Body()); got != fmt.Sprintf("state %d", maxRecentMessages) {
		t.Errorf("newest replayed message = %q, want the latest broadcast", got)
	}
}

func TestUnicastIsNotReplayed(t *testing.T) {
	r := New()
	a := &fakeParticipant{id: 1}
	r.Join(a)
	r.Unicast(message("private"), 1)

	late := &fakeParticipant{id: 2}
	r.Join(late)

	if len(late.received) != 0 {
		t.Errorf("unicast leaked into the replay buffer: %d messages", len(late.received))
	}
}

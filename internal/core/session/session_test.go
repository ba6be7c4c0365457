package session

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"royale/internal/wire"
)

func newTestSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	s := New(server)
	t.Cleanup(func() {
		s.Close()
		client.Close()
	})
	return s, client
}

func readOneMessage(t *testing.T, conn net.Conn) *wire.Message {
	t.Helper()
	frame := make([]byte, wire.FrameSize)
	if _, err := io.ReadFull(conn, frame); err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	msg, bodyLen, err := wire.DecodeFrame(frame)
	if err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if bodyLen > 0 {
		body := make([]byte, bodyLen)
		if _, err := io.ReadFull(conn, body); err != nil {
			t.Fatalf("reading body: %v", err)
		}
		msg.SetBody(body)
	}
	return msg
}

func TestReadMessage(t *testing.T) {
	s, client := newTestSession(t)

	sent := &wire.Message{}
	sent.Action.Valid = true
	sent.Action.Hit = true
	sent.Action.ID = 3
	sent.SetBodyString("hit me")

	go func() {
		client.Write(sent.Encode())
	}()

	got, err := s.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() failed: %v", err)
	}
	if diff := cmp.Diff(sent.Action, got.Action); diff != "" {
		t.Errorf("action mismatch (-sent +got):\n%s", diff)
	}
	if string(got.Body()) != "hit me" {
		t.Errorf("body = %q, want %q", got.Body(), "hit me")
	}
}

func TestReadMessageRejectsOversizedHeader(t *testing.T) {
	s, client := newTestSession(t)

	frame := make([]byte, wire.FrameSize)
	copy(frame, " 513")
	go func() {
		client.Write(frame)
	}()

	if _, err := s.ReadMessage(); !errors.Is(err, wire.ErrOversizedBody) {
		t.Errorf("ReadMessage() error = %v, want ErrOversizedBody", err)
	}
}

func TestDeliverPreservesOrder(t *testing.T) {
	s, client := newTestSession(t)

	for i := 1; i <= 5; i++ {
		msg := &wire.Message{}
		msg.Action.Valid = true
		msg.Action.Turn = int32(i)
		s.Deliver(msg)
	}

	for i := 1; i <= 5; i++ {
		got := readOneMessage(t, client)
		if got.Action.Turn != int32(i) {
			t.Fatalf("message %d arrived with turn %d", i, got.Action.Turn)
		}
	}
}

func TestDeliverAfterCloseDoesNotBlock(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < outboundQueueSize*2; i++ {
			s.Deliver(&wire.Message{})
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Deliver() blocked on a closed session")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestSeatAssignment(t *testing.T) {
	s, _ := newTestSession(t)
	if s.SeatID() != 0 {
		t.Errorf("fresh session seat = %d, want 0", s.SeatID())
	}
	s.SetSeatID(7)
	if s.SeatID() != 7 {
		t.Errorf("seat after assignment = %d, want 7", s.SeatID())
	}
}

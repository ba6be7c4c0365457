// Package client implements the player side of the table protocol: a
// connection controller that decodes server messages into callbacks and
// encodes player decisions into wire actions. The terminal frontend in
// cmd/client drives it; tests drive it over an in-memory pipe.
package client

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"royale/internal/wire"
)

// Handlers receive the decoded server messages. Nil handlers are
// skipped. All handlers are invoked from the controller's read loop.
type Handlers struct {
	// SeatAssigned fires once after connecting, with the table seat id
	// and starting balance.
	SeatAssigned func(seatID, credits int)
	// StateChanged fires on every table broadcast with the seat holding
	// the turn, whether the split control should be offered, and the
	// rendered table text.
	StateChanged func(turn int, canSplit bool, status string)
	// RoundSettled fires with this player's per-hand outcome codes and
	// new balance when a round completes.
	RoundSettled func(outcomes []int, credits int, note string)
	// ActionRejected fires when the server refuses an action.
	ActionRejected func(reason string)
}

// Controller owns one connection to the table server.
type Controller struct {
	conn     net.Conn
	handlers Handlers

	mu     sync.Mutex
	seatID int
}

// New wraps an established connection. Run must be called to start
// processing server messages.
func New(conn net.Conn, handlers Handlers) *Controller {
	return &Controller{conn: conn, handlers: handlers}
}

// Dial connects to the table server at addr.
func Dial(addr string, handlers Handlers) (*Controller, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", addr, err)
	}
	return New(conn, handlers), nil
}

// SeatID returns the seat assigned by the server, or 0 before the
// assignment arrives.
func (c *Controller) SeatID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seatID
}

// Run reads server messages until the connection closes, dispatching
// each to the appropriate handler. It returns nil on an orderly close.
func (c *Controller) Run() error {
	for {
		msg, err := c.readMessage()
		switch {
		case err == nil:
			c.dispatch(msg)
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
			errors.Is(err, io.ErrClosedPipe), errors.Is(err, net.ErrClosed):
			return nil
		default:
			return err
		}
	}
}

func (c *Controller) readMessage() (*wire.Message, error) {
	frame := make([]byte, wire.FrameSize)
	if _, err := io.ReadFull(c.conn, frame); err != nil {
		return nil, err
	}

	msg, bodyLen, err := wire.DecodeFrame(frame)
	if err != nil {
		return nil, err
	}

	if bodyLen > 0 {
		body := make([]byte, bodyLen)
		if _, err := io.ReadFull(c.conn, body); err != nil {
			return nil, err
		}
		msg.SetBody(body)
	}
	return msg, nil
}

// dispatch classifies one server message and invokes its handler.
func (c *Controller) dispatch(msg *wire.Message) {
	action := msg.Action
	body := string(msg.Body())

	switch {
	case action.GivenID != 0:
		c.mu.Lock()
		c.seatID = int(action.GivenID)
		c.mu.Unlock()
		if c.handlers.SeatAssigned != nil {
			c.handlers.SeatAssigned(int(action.GivenID), int(action.ClientCredits))
		}
	case action.Tag[0] != 0:
		outcomes := make([]int, 0, int(action.Tag[0]))
		for i := 1; i <= int(action.Tag[0]) && i < wire.TagLength; i++ {
			outcomes = append(outcomes, int(int8(action.Tag[i])))
		}
		if c.handlers.RoundSettled != nil {
			c.handlers.RoundSettled(outcomes, int(action.ClientCredits), body)
		}
	case strings.HasPrefix(body, "rejected:"):
		if c.handlers.ActionRejected != nil {
			c.handlers.ActionRejected(strings.TrimSpace(strings.TrimPrefix(body, "rejected:")))
		}
	default:
		if c.handlers.StateChanged != nil {
			c.handlers.StateChanged(int(action.Turn), action.SplitButton, body)
		}
	}
}

// PlaceBet enters the coming round with the given stake.
func (c *Controller) PlaceBet(amount int) error {
	return c.send(func(a *wire.Action) {
		a.Play = true
		a.Bet = int32(amount)
	})
}

// DeclineRound opts out of the coming round.
func (c *Controller) DeclineRound() error {
	return c.send(func(a *wire.Action) { a.Play = true })
}

// Hit requests one more card.
func (c *Controller) Hit() error {
	return c.send(func(a *wire.Action) { a.Hit = true })
}

// Stand ends the current hand.
func (c *Controller) Stand() error {
	return c.send(func(a *wire.Action) { a.Stand = true })
}

// DoubleDown doubles the bet for exactly one more card.
func (c *Controller) DoubleDown() error {
	return c.send(func(a *wire.Action) { a.DoubleDown = true })
}

// Split divides a pair into two hands.
func (c *Controller) Split() error {
	return c.send(func(a *wire.Action) { a.Split = true })
}

// Surrender forfeits half the bet and retires the hand.
func (c *Controller) Surrender() error {
	return c.send(func(a *wire.Action) { a.Surrender = true })
}

// Leave departs the table; the server closes the connection in response.
func (c *Controller) Leave() error {
	return c.send(func(a *wire.Action) { a.Leave = true })
}

// send encodes and transmits one action. The write happens under the
// lock so concurrent callers cannot interleave frames.
func (c *Controller) send(set func(*wire.Action)) error {
	msg := &wire.Message{}
	msg.Action.Valid = true
	set(&msg.Action)

	c.mu.Lock()
	msg.Action.ID = int32(c.seatID)
	data := msg.Encode()
	_, err := c.conn.Write(data)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("error sending action: %w", err)
	}
	return nil
}

// Close tears down the connection, unblocking Run.
func (c *Controller) Close() error {
	return c.conn.Close()
}

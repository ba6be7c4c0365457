// Package session wraps a player's TCP connection with the framing
// reader and a serialized outbound queue. One Session exists per
// connection; the frontend owns the read side and the table backend
// delivers messages through the write queue.
package session

import (
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"royale/internal/wire"
)

// outboundQueueSize bounds the per-connection write queue. A client
// that cannot drain broadcasts this far behind is disconnected rather
// than allowed to stall the table.
const outboundQueueSize = 64

// Session represents one connected player.
type Session struct {
	connection net.Conn
	remoteHost string
	port       string

	// SeatID is the table seat assigned during the handshake. Zero
	// until the backend assigns one.
	seatID int
	mu     sync.Mutex

	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Debug mirrors the wire traffic to the frame logger when set.
	Debug bool
}

// New wraps an accepted connection and starts its writer. The caller
// must Close the session to release the writer goroutine.
func New(connection net.Conn) *Session {
	host, port := splitAddr(connection.RemoteAddr())

	s := &Session{
		connection: connection,
		remoteHost: host,
		port:       port,
		outbound:   make(chan []byte, outboundQueueSize),
		done:       make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func splitAddr(addr net.Addr) (string, string) {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		// net.Pipe addresses have no port component.
		return strings.TrimSpace(addr.String()), ""
	}
	return host, port
}

func (s *Session) RemoteHost() string { return s.remoteHost }
func (s *Session) Port() string       { return s.port }

// SeatID returns the seat assigned to this connection.
func (s *Session) SeatID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatID
}

// SetSeatID records the seat assigned during the handshake.
func (s *Session) SetSeatID(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seatID = id
}

// ReadMessage blocks until the next complete message arrives. The
// fixed-size frame is read first; its header names the body length,
// and a header over the body limit is a framing violation that the
// caller must treat as fatal for the connection.
func (s *Session) ReadMessage() (*wire.Message, error) {
	frame := make([]byte, wire.FrameSize)
	if _, err := io.ReadFull(s.connection, frame); err != nil {
		return nil, err
	}

	msg, bodyLen, err := wire.DecodeFrame(frame)
	if err != nil {
		return nil, err
	}

	if bodyLen > 0 {
		body := make([]byte, bodyLen)
		if _, err := io.ReadFull(s.connection, body); err != nil {
			return nil, fmt.Errorf("reading %d byte body from %s: %w", bodyLen, s.remoteHost, err)
		}
		msg.SetBody(body)
	}
	return msg, nil
}

// Deliver queues a message for transmission. Messages are written in
// the order delivered, one at a time. If the queue is full the session
// is closed; a reader this far behind is effectively gone.
func (s *Session) Deliver(msg *wire.Message) {
	data := msg.Encode()

	select {
	case <-s.done:
	case s.outbound <- data:
	default:
		_ = s.Close()
	}
}

// writeLoop drains the outbound queue onto the connection. It is the
// only goroutine that writes, so queued messages can never interleave.
func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.outbound:
			if err := s.transmit(data); err != nil {
				_ = s.Close()
				return
			}
		}
	}
}

// transmit writes the full contents of data to the connection.
func (s *Session) transmit(data []byte) error {
	sent := 0
	for sent < len(data) {
		n, err := s.connection.Write(data[sent:])
		if err != nil {
			return fmt.Errorf("failed to send to client %v: %w", s.remoteHost, err)
		}
		sent += n
	}
	return nil
}

// Close shuts down the writer and the underlying connection. Safe to
// call multiple times.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.connection.Close()
	})
	return err
}

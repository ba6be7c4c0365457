// Package wire implements the fixed-format message layout exchanged
// between the table server and its clients.
//
// Every message starts with a 4 byte ASCII decimal header giving the
// length of the variable status-text body, followed by the fixed-size
// action record, the fixed-size card record, and finally the body
// itself. The fixed portion is the same size in both directions so
// either end can read it in a single pass before deciding how much
// body to expect.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// HeaderLength is the size of the ASCII body-length prefix.
	HeaderLength = 4
	// ActionSize is the encoded size of an Action record.
	ActionSize = 37
	// CardSize is the encoded size of a Card record.
	CardSize = 6
	// FrameSize is the size of the fixed leading portion of every
	// message: header plus action plus card.
	FrameSize = HeaderLength + ActionSize + CardSize
	// MaxBodyLength bounds the status-text body. Anything larger is
	// treated as a framing failure since the stream can no longer be
	// trusted to be aligned.
	MaxBodyLength = 512
	// TagLength is the size of the small out-of-band buffer on the
	// action record, used to carry per-hand settlement results.
	TagLength = 5
)

var (
	// ErrOversizedBody is returned when a frame declares a body longer
	// than MaxBodyLength. The connection must be closed; continuing to
	// read would leave the stream misaligned.
	ErrOversizedBody = errors.New("wire: declared body length exceeds maximum")
	// ErrBadHeader is returned when the length prefix is not a decimal number.
	ErrBadHeader = errors.New("wire: malformed length header")
	// ErrShortFrame is returned when fewer than FrameSize bytes are provided.
	ErrShortFrame = errors.New("wire: frame shorter than fixed message size")
)

// Card is the wire representation of a single playing card, used for
// out-of-band single-card delivery alongside the status text.
type Card struct {
	Rank   int32
	Symbol byte
	Suit   byte
}

// Action is the fixed-size record describing what the sender wants to
// do (client to server) or what the table wants the receiver to know
// (server to client). Field order is part of the wire format; fields
// are encoded little-endian in declaration order.
type Action struct {
	// Valid reports whether the sender populated the record at all.
	Valid bool

	Hit         bool
	Stand       bool
	DoubleDown  bool
	Split       bool
	SplitButton bool
	Surrender   bool
	Insurance   bool
	Play        bool
	Leave       bool
	FirstCard   bool
	SecondCard  bool

	// ID is the seat id the sender believes it holds. GivenID carries
	// the server-assigned seat id during the join handshake.
	ID            int32
	GivenID       int32
	ClientCredits int32
	Bet           int32
	// Turn is the seat whose decision the table is waiting on:
	// a seat id, TurnDealer, or TurnNone.
	Turn int32

	// Tag carries per-hand settlement results on unicast settlement
	// messages: Tag[0] is the hand count, Tag[1:] the outcome codes.
	Tag [TagLength]byte
}

// Turn sentinels carried in Action.Turn.
const (
	TurnNone   int32 = 0
	TurnDealer int32 = -1
)

// Message is one full protocol exchange: the fixed action and card
// records plus the variable status text.
type Message struct {
	Action Action
	Card   Card

	body []byte
}

// Body returns the status-text body.
func (m *Message) Body() []byte { return m.body }

// SetBody sets the status-text body, truncating it at MaxBodyLength.
func (m *Message) SetBody(b []byte) {
	if len(b) > MaxBodyLength {
		b = b[:MaxBodyLength]
	}
	m.body = b
}

// SetBodyString is a convenience wrapper around SetBody.
func (m *Message) SetBodyString(s string) { m.SetBody([]byte(s)) }

// Encode serializes the message. The length header is always derived
// from the actual body length; a stale length can never be emitted.
func (m *Message) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, FrameSize+len(m.body)))

	fmt.Fprintf(buf, "%*d", HeaderLength, len(m.body))

	// Action and Card contain only fixed-size fields, so this writes
	// each field in declaration order with explicit widths.
	_ = binary.Write(buf, binary.LittleEndian, &m.Action)
	_ = binary.Write(buf, binary.LittleEndian, &m.Card)

	buf.Write(m.body)
	return buf.Bytes()
}

// DecodeFrame parses the fixed leading portion of a message and returns
// the partially populated Message along with the number of body bytes
// the sender declared. The caller is expected to read that many further
// bytes and attach them with SetBody.
//
// A declared length greater than MaxBodyLength fails with
// ErrOversizedBody and the caller must drop the connection: this format
// has no resynchronization point, so truncating and continuing would
// misalign every subsequent frame.
func DecodeFrame(frame []byte) (*Message, int, error) {
	if len(frame) < FrameSize {
		return nil, 0, ErrShortFrame
	}

	bodyLen, err := strconv.Atoi(strings.TrimSpace(string(frame[:HeaderLength])))
	if err != nil || bodyLen < 0 {
		return nil, 0, fmt.Errorf("%w: %q", ErrBadHeader, frame[:HeaderLength])
	}
	if bodyLen > MaxBodyLength {
		return nil, 0, ErrOversizedBody
	}

	m := &Message{}
	r := bytes.NewReader(frame[HeaderLength:FrameSize])
	if err := binary.Read(r, binary.LittleEndian, &m.Action); err != nil {
		return nil, 0, fmt.Errorf("wire: decoding action record: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &m.Card); err != nil {
		return nil, 0, fmt.Errorf("wire: decoding card record: %w", err)
	}

	return m, bodyLen, nil
}

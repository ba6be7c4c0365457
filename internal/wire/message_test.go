package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecordSizes(t *testing.T) {
	if size := binary.Size(Action{}); size != ActionSize {
		t.Errorf("encoded Action size = %d, want %d", size, ActionSize)
	}
	if size := binary.Size(Card{}); size != CardSize {
		t.Errorf("encoded Card size = %d, want %d", size, CardSize)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		card   Card
		body   string
	}{
		{
			name:   "empty message",
			action: Action{},
			card:   Card{},
			body:   "",
		},
		{
			name: "bet placement",
			action: Action{
				Valid:         true,
				Play:          true,
				ID:            3,
				ClientCredits: 100,
				Bet:           10,
			},
			body: "placing bet",
		},
		{
			name: "table state broadcast",
			action: Action{
				Valid:       true,
				Turn:        2,
				SplitButton: true,
				Tag:         [TagLength]byte{2, 1, 2, 0, 0},
			},
			card: Card{Rank: 11, Symbol: 'A', Suit: 'S'},
			body: "<-- Player 0 hand: 0 AS TD \n<-- Player 2 hand: 0 8C 8H ",
		},
		{
			name:   "dealer turn sentinel",
			action: Action{Valid: true, Turn: TurnDealer},
			body:   "dealer playing",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &Message{Action: tt.action, Card: tt.card}
			in.SetBodyString(tt.body)

			data := in.Encode()
			if len(data) != FrameSize+len(tt.body) {
				t.Fatalf("encoded length = %d, want %d", len(data), FrameSize+len(tt.body))
			}

			out, bodyLen, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("DecodeFrame() returned error: %v", err)
			}
			if bodyLen != len(tt.body) {
				t.Errorf("declared body length = %d, want %d", bodyLen, len(tt.body))
			}
			out.SetBody(data[FrameSize : FrameSize+bodyLen])

			if diff := cmp.Diff(tt.action, out.Action); diff != "" {
				t.Errorf("action record mismatch; diff:\n%s", diff)
			}
			if diff := cmp.Diff(tt.card, out.Card); diff != "" {
				t.Errorf("card record mismatch; diff:\n%s", diff)
			}
			if string(out.Body()) != tt.body {
				t.Errorf("body = %q, want %q", out.Body(), tt.body)
			}
		})
	}
}

func TestEncodeDerivesHeaderFromBody(t *testing.T) {
	m := &Message{}
	m.SetBodyString("twelve bytes")

	data := m.Encode()
	if got := string(data[:HeaderLength]); got != "  12" {
		t.Errorf("header = %q, want %q", got, "  12")
	}
}

func TestSetBodyClampsToMaximum(t *testing.T) {
	m := &Message{}
	m.SetBody(bytes.Repeat([]byte{'x'}, MaxBodyLength+100))

	if len(m.Body()) != MaxBodyLength {
		t.Errorf("body length after clamp = %d, want %d", len(m.Body()), MaxBodyLength)
	}
}

func TestDecodeFrameRejectsOversizedBody(t *testing.T) {
	frame := make([]byte, FrameSize)
	copy(frame, []byte(" 513"))

	if _, _, err := DecodeFrame(frame); !errors.Is(err, ErrOversizedBody) {
		t.Errorf("DecodeFrame() error = %v, want ErrOversizedBody", err)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		wantErr error
	}{
		{
			name:    "short frame",
			frame:   make([]byte, FrameSize-1),
			wantErr: ErrShortFrame,
		},
		{
			name: "non-numeric header",
			frame: func() []byte {
				f := make([]byte, FrameSize)
				copy(f, []byte("abcd"))
				return f
			}(),
			wantErr: ErrBadHeader,
		},
		{
			name: "negative length",
			frame: func() []byte {
				f := make([]byte, FrameSize)
				copy(f, []byte("  -4"))
				return f
			}(),
			wantErr: ErrBadHeader,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeFrame(tt.frame); !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

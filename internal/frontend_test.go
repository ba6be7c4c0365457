package internal

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"royale/internal/core"
	"royale/internal/core/session"
	"royale/internal/wire"
)

type stubBackend struct {
	mu      sync.Mutex
	handled int
	ended   int
}

func (b *stubBackend) Identifier() string { return "STUB" }

func (b *stubBackend) Init(context.Context) error { return nil }

func (b *stubBackend) StartSession(*session.Session) error { return nil }

func (b *stubBackend) Handle(context.Context, *session.Session, *wire.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handled++
	return nil
}

func (b *stubBackend) EndSession(*session.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ended++
}

func (b *stubBackend) counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handled, b.ended
}

func TestFrameLoggingFollowsTheSessionDebugFlag(t *testing.T) {
	tests := []struct {
		name     string
		debug    bool
		wantDump bool
	}{
		{"debug sessions dump frames", true, true},
		{"regular sessions stay quiet", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &stubBackend{}
			logger := logrus.New()
			logger.Out = io.Discard

			var dump bytes.Buffer
			f := &frontend{Backend: backend, Config: &core.Config{}, Logger: logger, frameLog: &dump}

			serverConn, clientConn := net.Pipe()
			s := session.New(serverConn)
			s.Debug = tt.debug

			done := make(chan struct{})
			go func() {
				defer close(done)
				f.processMessages(context.Background(), s, "test")
			}()

			msg := &wire.Message{}
			msg.Action.Valid = true
			msg.Action.Hit = true
			clientConn.SetWriteDeadline(time.Now().Add(2 * time.Second))
			if _, err := clientConn.Write(msg.Encode()); err != nil {
				t.Fatalf("writing frame: %v", err)
			}

			deadline := time.Now().Add(2 * time.Second)
			for {
				if handled, _ := backend.counts(); handled == 1 {
					break
				}
				if time.Now().After(deadline) {
					t.Fatal("backend never received the message")
				}
				time.Sleep(10 * time.Millisecond)
			}

			clientConn.Close()
			<-done

			if got := dump.Len() > 0; got != tt.wantDump {
				t.Errorf("frame dump written = %v, want %v", got, tt.wantDump)
			}
			if _, ended := backend.counts(); ended != 1 {
				t.Errorf("EndSession calls = %d, want 1", ended)
			}
		})
	}
}

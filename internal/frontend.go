package internal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"royale/internal/core"
	gamedebug "royale/internal/core/debug"
	"royale/internal/core/session"
	"royale/internal/wire"
)

var (
	connectedMu       sync.Mutex
	connectedSessions = make(map[string]*session.Session)
)

func connectedCount() int {
	connectedMu.Lock()
	defer connectedMu.Unlock()
	return len(connectedSessions)
}

// frontend implements the concurrent player connection logic.
//
// Data is read from any connected players and passed to a backend instance,
// abstracting the lower level connection details away from the Backends.
type frontend struct {
	Address string
	Backend Backend
	Config  *core.Config
	Logger  *logrus.Logger

	// frameLog receives decoded frame dumps for sessions with the debug
	// flag set. Defaults to stdout.
	frameLog io.Writer
}

// Start initializes the server backend and opens a TCP socket for the specified
// server. A blocking loop for accepting player connections is spun off in its own
// goroutine and added to the WaitGroup. Context cancellations will stop the server.
func (f *frontend) Start(ctx context.Context, wg *sync.WaitGroup) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %v", f.Backend.Identifier(), err)
	}

	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %v", f.Address, err)
	}

	wg.Add(1)
	go f.startBlockingLoop(ctx, socket, wg)

	return nil
}

// createSocket opens a TCP socket to listen for player connections on the
// Address provided to the frontend.
func (f *frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s", err.Error())
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %s", err.Error())
	}

	return socket, nil
}

// startBlockingLoop implements a connection handling loop that's purely
// responsible for accepting new connections and spinning off goroutines for the
// Backend to handle them.
func (f *frontend) startBlockingLoop(ctx context.Context, socket *net.TCPListener, wg *sync.WaitGroup) {
	defer wg.Done()

	f.Logger.Printf("[%s] waiting for connections on %v", f.Backend.Identifier(), f.Address)

	connections := make(chan *net.TCPConn)
	go func() {
		for {
			// Poll until we can accept more players.
			for connectedCount() >= f.Config.MaxConnections {
				time.Sleep(time.Second)
			}

			connection, err := socket.AcceptTCP()
			if err != nil {
				f.Logger.Warnf("failed to accept connection: %s", err.Error())
				continue
			}

			connections <- connection
		}
	}()

	sessionWg := &sync.WaitGroup{}
handleLoop:
	for {
		select {
		case <-ctx.Done():
			break handleLoop
		case connection := <-connections:
			sessionWg.Add(1)
			go f.acceptPlayer(ctx, connection, sessionWg)
		}
	}

	f.Logger.Infof("[%v] shutting down (waiting for connections to close)", f.Backend.Identifier())
	sessionWg.Wait()
	f.Logger.Infof("[%v] exited", f.Backend.Identifier())
}

// acceptPlayer takes a connection and attempts to initiate a session by seating
// the player and replaying the recent table history. If it succeeds, the
// goroutine moves into the message processing loop.
func (f *frontend) acceptPlayer(ctx context.Context, connection *net.TCPConn, wg *sync.WaitGroup) {
	defer wg.Done()

	s := session.New(connection)
	s.Debug = f.Config.Debugging.FrameLoggingEnabled

	f.Logger.Infof("[%s] accepted connection from %s", f.Backend.Identifier(), s.RemoteHost())

	if err := f.Backend.StartSession(s); err != nil {
		f.Logger.Errorf("StartSession() failed for player %s: %s", s.RemoteHost(), err)
		_ = s.Close()
		return
	}

	key := s.RemoteHost() + ":" + s.Port()
	connectedMu.Lock()
	connectedSessions[key] = s
	connectedMu.Unlock()

	f.processMessages(ctx, s, key)
}

// processMessages starts a blocking loop dedicated to reading data sent from a
// player and only returns once the connection has closed.
func (f *frontend) processMessages(ctx context.Context, s *session.Session, key string) {
	defer f.closeConnectionAndRecover(f.Backend.Identifier(), s, key)

	for {
		select {
		case <-ctx.Done():
			// For now just allow the deferred function to close the connection.
			return
		default:
		}

		msg, err := s.ReadMessage()
		if err == io.EOF || errors.Is(err, net.ErrClosed) {
			break
		} else if errors.Is(err, wire.ErrOversizedBody) || errors.Is(err, wire.ErrBadHeader) {
			// Framing violations are unrecoverable; the stream can no
			// longer be trusted to be aligned on message boundaries.
			f.Logger.Warnf("[%s] dropping %s: %s", f.Backend.Identifier(), s.RemoteHost(), err)
			break
		} else if err != nil {
			f.Logger.Warn(err.Error())
			break
		}

		if s.Debug {
			out := f.frameLog
			if out == nil {
				out = os.Stdout
			}
			gamedebug.PrintFrame(gamedebug.PrintFrameParams{
				Writer:        bufio.NewWriter(out),
				ClientMessage: true,
				Message:       msg,
			})
		}

		if err = f.Backend.Handle(ctx, s, msg); err != nil {
			f.Logger.Warn("error in player communication: " + err.Error())
			return
		}
	}
}

// closeConnectionAndRecover is the failsafe that catches any panics, releases
// the player's seat, and removes them from the list regardless of the state of
// the connection.
func (f *frontend) closeConnectionAndRecover(serverName string, s *session.Session, key string) {
	if err := recover(); err != nil {
		f.Logger.Errorf("error in player communication with %s: error=%s, trace: %s",
			s.RemoteHost(), err, debug.Stack())
	}

	f.Backend.EndSession(s)

	if err := s.Close(); err != nil {
		f.Logger.Warnf("failed to close player connection: %s", err)
	}

	connectedMu.Lock()
	delete(connectedSessions, key)
	connectedMu.Unlock()

	f.Logger.Infof("[%s] disconnected player %s", serverName, s.RemoteHost())
}

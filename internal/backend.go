package internal

import (
	"context"

	"royale/internal/core/session"
	"royale/internal/wire"
)

// Backend is an interface for a sub-server that handles a specific set
// of player interactions as part of the game flow.
type Backend interface {
	// Identifier returns a uniquely identifying string.
	Identifier() string

	// Init is called before a Backend is started as a hook for the Backend
	// to perform any necessary initialization before it can accept players.
	Init(ctx context.Context) error

	// StartSession performs the connection handshake: assigning the player
	// their seat, replaying recent table history, and announcing the join.
	StartSession(s *session.Session) error

	// Handle is the main entry point for processing player messages. It is
	// responsible for dispatching each action to the table and sending any
	// responses.
	Handle(ctx context.Context, s *session.Session, msg *wire.Message) error

	// EndSession releases the player's seat when the connection closes,
	// for any reason.
	EndSession(s *session.Session)
}

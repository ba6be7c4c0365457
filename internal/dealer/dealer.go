// Package dealer is the TABLE server implementation: the backend that
// seats connecting players at the shared table, dispatches their
// actions to the game engine, and fans the resulting table state out to
// every connected player.
package dealer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"royale/internal/core"
	"royale/internal/core/data"
	"royale/internal/core/session"
	"royale/internal/deck"
	"royale/internal/room"
	"royale/internal/table"
	"royale/internal/wire"
)

// Server is the TABLE server implementation. Players connect directly
// to this server; its main responsibility is translating wire messages
// into table actions and table state back into wire messages.
type Server struct {
	Name   string
	Config *core.Config
	Logger *logrus.Logger

	engine *table.Engine
	room   *room.Room
	db     *gorm.DB

	// heldCredits keeps disconnected players' balances in memory for a
	// while so a quick reconnect from the same host restores them
	// without a database round trip.
	heldCredits *cache.Cache

	mu       sync.Mutex
	sessions map[int]*session.Session
	// turnTimer stands in for a player who lets their decision deadline
	// expire. Rearmed whenever the turn moves.
	turnTimer *time.Timer
	timerSeat int
}

func (s *Server) Identifier() string {
	return s.Name
}

// Table exposes the game engine to the status API. Valid after Init.
func (s *Server) Table() *table.Engine {
	return s.engine
}

func (s *Server) Init(_ context.Context) error {
	// The controller initializes the backend early when the status API
	// needs the engine; the frontend's own Init call is then a no-op.
	if s.engine != nil {
		return nil
	}

	dataSource := s.Config.Database.Filename
	if s.Config.Database.Engine == "postgres" {
		dataSource = s.Config.DatabaseURL()
	}
	db, err := data.Initialize(
		s.Config.Database.Engine,
		dataSource,
		s.Config.Debugging.DatabaseLoggingEnabled,
	)
	if err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}
	s.db = db

	hold := s.Config.CreditHold()
	if hold == 0 {
		hold = cache.NoExpiration
	}
	s.heldCredits = cache.New(hold, 10*time.Minute)

	rules := table.Rules{
		Decks:            s.Config.GameServer.Decks,
		StartingCredits:  s.Config.GameServer.StartingCredits,
		MinBet:           s.Config.GameServer.MinBet,
		MaxBet:           s.Config.GameServer.MaxBet,
		DealerHitsSoft17: s.Config.GameServer.DealerHitsSoft17,
		EvictBankrupt:    s.Config.GameServer.EvictBankrupt,
	}
	shoe := deck.NewShoe(rules.Decks, rand.New(rand.NewSource(time.Now().UnixNano())))

	s.engine = table.New(rules, shoe)
	s.room = room.New()
	s.sessions = make(map[int]*session.Session)
	return nil
}

// StartSession seats the player: their balance is restored from the
// reconnect hold or the database if either has one, the assigned seat id
// is sent back, and the recent table history is replayed before the seat
// starts receiving live broadcasts.
func (s *Server) StartSession(sess *session.Session) error {
	credits := s.storedCredits(sess.RemoteHost())

	seat := s.engine.AddSeat(credits)
	sess.SetSeatID(seat.ID)

	s.mu.Lock()
	s.sessions[seat.ID] = sess
	s.mu.Unlock()

	welcome := &wire.Message{}
	welcome.Action.Valid = true
	welcome.Action.GivenID = int32(seat.ID)
	welcome.Action.ClientCredits = int32(seat.Credits)
	welcome.SetBodyString(fmt.Sprintf("seated as player %d with %d credits", seat.ID, seat.Credits))
	sess.Deliver(welcome)

	s.room.Join(sess)
	s.Logger.Infof("[%s] seated player %d from %s with %d credits",
		s.Name, seat.ID, sess.RemoteHost(), seat.Credits)

	s.broadcastState()
	return nil
}

// storedCredits recovers the balance for a returning host. The
// in-memory hold takes precedence since it is always at least as fresh
// as the database.
func (s *Server) storedCredits(remoteHost string) int {
	if held, ok := s.heldCredits.Get(remoteHost); ok {
		s.heldCredits.Delete(remoteHost)
		return held.(int)
	}

	player, err := data.FindPlayerByRemoteHost(s.db, remoteHost)
	if err != nil {
		s.Logger.Warnf("error looking up player record for %s: %s", remoteHost, err)
		return 0
	}
	if player == nil {
		return 0
	}
	return player.Credits
}

// Handle dispatches one player message to the table. Rejected actions
// are reported back to the sender; nothing is silently dropped.
func (s *Server) Handle(_ context.Context, sess *session.Session, msg *wire.Message) error {
	seatID := sess.SeatID()
	action := &msg.Action

	if !action.Valid {
		s.reject(seatID, "malformed action")
		return nil
	}

	var err error
	switch {
	case action.Leave:
		// Closing the connection tears the session down through the
		// normal disconnect path.
		return sess.Close()
	case action.Play:
		if action.Bet > 0 {
			err = s.engine.PlaceBet(seatID, int(action.Bet))
		} else {
			err = s.engine.Decline(seatID)
		}
	case action.Hit:
		err = s.engine.Hit(seatID)
	case action.Stand:
		err = s.engine.Stand(seatID)
	case action.DoubleDown:
		err = s.engine.DoubleDown(seatID)
	case action.Split:
		err = s.engine.Split(seatID)
	case action.Surrender:
		err = s.engine.Surrender(seatID)
	case action.Insurance:
		// Declared on the wire but never a legal play.
		err = table.ErrIllegalAction
	default:
		s.Logger.Infof("[%s] received unknown action from player %d", s.Name, seatID)
		s.reject(seatID, "unknown action")
		return nil
	}

	if err != nil {
		s.reject(seatID, err.Error())
		return nil
	}

	s.afterAction()
	return nil
}

// EndSession releases the player's seat. Their balance is held for a
// quick reconnect and persisted for a slow one.
func (s *Server) EndSession(sess *session.Session) {
	seatID := sess.SeatID()

	s.mu.Lock()
	delete(s.sessions, seatID)
	s.mu.Unlock()
	s.room.Leave(sess)

	if seatID == 0 {
		return
	}

	credits, err := s.engine.RemoveSeat(seatID)
	if err != nil {
		return
	}

	s.heldCredits.Set(sess.RemoteHost(), credits, cache.DefaultExpiration)
	if err := data.SavePlayerCredits(s.db, sess.RemoteHost(), credits); err != nil {
		s.Logger.Warnf("error persisting %d credits for %s: %s", credits, sess.RemoteHost(), err)
	}

	s.Logger.Infof("[%s] player %d left with %d credits", s.Name, seatID, credits)
	s.afterAction()
}

// reject reports a refused action back to the seat that sent it.
func (s *Server) reject(seatID int, reason string) {
	msg := &wire.Message{}
	msg.Action.Valid = true
	msg.Action.ID = int32(seatID)
	msg.SetBodyString("rejected: " + reason)
	s.room.Unicast(msg, seatID)
}

// afterAction runs the common post-mutation sequence: deliver any
// settlement results, broadcast the new table state, and rearm the turn
// timer.
func (s *Server) afterAction() {
	s.deliverResults()
	s.broadcastState()
}

// deliverResults sends each settled seat its private result message and
// persists the new balance. Evicted players are disconnected once the
// message is on its way.
func (s *Server) deliverResults() {
	results := s.engine.TakeResults()
	if len(results) == 0 {
		return
	}

	for seatID, result := range results {
		msg := &wire.Message{}
		msg.Action.Valid = true
		msg.Action.ID = int32(seatID)
		msg.Action.ClientCredits = int32(result.Credits)
		msg.Action.Tag[0] = byte(len(result.Outcomes))
		for i, outcome := range result.Outcomes {
			if i+1 >= wire.TagLength {
				break
			}
			msg.Action.Tag[i+1] = byte(int8(outcome))
		}
		if result.Evicted {
			msg.SetBodyString("out of credits")
		}
		s.room.Unicast(msg, seatID)

		s.mu.Lock()
		sess := s.sessions[seatID]
		s.mu.Unlock()
		if sess == nil {
			continue
		}

		if err := data.SavePlayerCredits(s.db, sess.RemoteHost(), result.Credits); err != nil {
			s.Logger.Warnf("error persisting %d credits for %s: %s",
				result.Credits, sess.RemoteHost(), err)
		}
		if result.Evicted {
			_ = sess.Close()
		}
	}
}

// broadcastState fans the current table state out to every player and
// rearms the decision timer for whichever seat now holds the turn.
func (s *Server) broadcastState() {
	snap := s.engine.Snapshot()

	msg := &wire.Message{}
	msg.Action.Valid = true
	msg.Action.Turn = int32(snap.Turn)
	msg.Action.SplitButton = snap.CanSplit
	msg.SetBodyString(snap.Status)
	s.room.Broadcast(msg)

	s.armTurnTimer(snap.Turn)
}

// armTurnTimer schedules a forced stand for the seat now holding the
// turn. The deadline is per turn: broadcasts that leave the turn with
// the same seat (other players joining, their own hits) do not extend
// it, and a timer for a previous turn is stopped before a new one is
// armed.
func (s *Server) armTurnTimer(turn int) {
	timeout := s.Config.TurnTimeout()
	if timeout == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if turn == s.timerSeat && s.turnTimer != nil {
		return
	}
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
	s.timerSeat = 0
	if turn <= 0 {
		return
	}

	s.timerSeat = turn
	var timer *time.Timer
	timer = time.AfterFunc(timeout, func() {
		s.mu.Lock()
		if s.turnTimer == timer {
			s.turnTimer = nil
			s.timerSeat = 0
		}
		s.mu.Unlock()

		if s.engine.ForceStand(turn) {
			s.Logger.Infof("[%s] stood player %d after %v of inactivity", s.Name, turn, timeout)
			s.afterAction()
		}
	})
	s.turnTimer = timer
}

// Shutdown persists every seated player's balance before the process exits.
func (s *Server) Shutdown() {
	s.mu.Lock()
	sessions := make(map[int]*session.Session, len(s.sessions))
	for id, sess := range s.sessions {
		sessions[id] = sess
	}
	s.mu.Unlock()

	for seatID, sess := range sessions {
		credits, err := s.engine.RemoveSeat(seatID)
		if err != nil {
			continue
		}
		if err := data.SavePlayerCredits(s.db, sess.RemoteHost(), credits); err != nil {
			s.Logger.Warnf("error persisting %d credits for %s: %s", credits, sess.RemoteHost(), err)
		}
	}

	if err := data.Shutdown(s.db); err != nil {
		s.Logger.Warnf("error closing database: %s", err)
	}
}

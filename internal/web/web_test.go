package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"royale/internal/deck"
	"royale/internal/table"
)

func newTestServer(t *testing.T) (*Server, *table.Engine) {
	t.Helper()

	engine := table.New(table.DefaultRules(), deck.NewStackedShoe(
		deck.Card{Rank: 10, Symbol: 'T', Suit: deck.Spades},
		deck.Card{Rank: 9, Symbol: '9', Suit: deck.Spades},
		deck.Card{Rank: 10, Symbol: 'K', Suit: deck.Spades},
		deck.Card{Rank: 8, Symbol: '8', Suit: deck.Spades},
	))

	logger := logrus.New()
	logger.Out = io.Discard

	return &Server{Logger: logger, Table: engine}, engine
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !body["ok"] {
		t.Errorf("health response = %v, want ok", body)
	}
}

func TestTableEndpoint(t *testing.T) {
	s, engine := newTestServer(t)

	seat := engine.AddSeat(0)
	if err := engine.PlaceBet(seat.ID, 10); err != nil {
		t.Fatalf("placing bet: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/table", nil)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var snap struct {
		Phase string `json:"phase"`
		Turn  int    `json:"turn"`
		Seats []struct {
			ID      int `json:"id"`
			Credits int `json:"credits"`
		} `json:"seats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	if snap.Phase != "player_turn" {
		t.Errorf("phase = %q, want player_turn", snap.Phase)
	}
	if len(snap.Seats) != 1 || snap.Seats[0].Credits != 90 {
		t.Errorf("seats = %+v, want one seat with 90 credits", snap.Seats)
	}
}

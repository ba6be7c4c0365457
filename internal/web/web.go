// Package web serves the read-only HTTP status API: a health check and
// a JSON rendering of the live table, for dashboards and monitoring.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"royale/internal/table"
)

// TableStater is the part of the game engine the API reads from.
type TableStater interface {
	Snapshot() table.Snapshot
}

// Server exposes table state over HTTP.
type Server struct {
	Config Config
	Logger *logrus.Logger
	Table  TableStater

	httpServer *http.Server
}

// Config holds the web server's listen parameters.
type Config struct {
	HTTPPort int
}

// Start launches the HTTP listener in its own goroutine. The server
// shuts down when the context is cancelled.
func (s *Server) Start(ctx context.Context) {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Config.HTTPPort),
		Handler: s.routes(),
	}

	go func() {
		s.Logger.Infof("[WEB] serving status API on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Errorf("error serving status API: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/table", s.handleTable)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleTable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Table.Snapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

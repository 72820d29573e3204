package server

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/notesapi/internal/database"
	"github.com/dukerupert/notesapi/internal/handler"
	"github.com/dukerupert/notesapi/internal/middleware"
	ws "github.com/dukerupert/notesapi/internal/websocket"
)

type Server struct {
	db     *database.DB
	hub    *ws.Hub
	noteH  *handler.NoteHandler
	logger *slog.Logger
}

func New(db *database.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	return &Server{
		db:     db,
		hub:    hub,
		noteH:  handler.NewNoteHandler(db, hub, logger.With("component", "note")),
		logger: logger,
	}
}

// Hub returns the note change feed hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Close disconnects change feed subscribers. The database is owned by the caller.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health(s.logger.With("component", "health")))

	// Notes API routes
	mux.HandleFunc("POST /notes", s.noteH.Create)
	mux.HandleFunc("GET /notes", s.noteH.List)
	mux.HandleFunc("GET /notes/{id}", s.noteH.Get)
	mux.HandleFunc("PUT /notes/{id}", s.noteH.Update)
	mux.HandleFunc("DELETE /notes/{id}", s.noteH.Delete)

	// Note change feed
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	httpLogger := s.logger.With("component", "http")
	var h http.Handler = mux
	h = middleware.Recover(httpLogger)(h)
	h = middleware.RequestLogger(httpLogger)(h)
	h = middleware.RequestID(h)
	return h
}

// internal/handlers/server.go

// Package handlers is the HTTP/WebSocket edge of the service. It translates
// requests into Store calls and Store results into broadcast events; all
// game rules live in the quiz package.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pkozlowski/quizroom/internal/presence"
	"github.com/pkozlowski/quizroom/internal/quiz"
)

// Server bundles the collaborators every handler needs.
type Server struct {
	Store    *quiz.Store
	Bank     *quiz.QuestionBank
	Presence *presence.Tracker
	Hub      *Hub
	Logger   *logrus.Logger
}

// NewServer wires a handler server.
func NewServer(store *quiz.Store, bank *quiz.QuestionBank, tracker *presence.Tracker, hub *Hub, logger *logrus.Logger) *Server {
	return &Server{
		Store:    store,
		Bank:     bank,
		Presence: tracker,
		Hub:      hub,
		Logger:   logger,
	}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/games", s.handleCreate)
	mux.HandleFunc("POST /api/games/{roomCode}/join", s.handleJoin)
	mux.HandleFunc("GET /api/games/{roomCode}", s.handleGet)
	mux.HandleFunc("POST /api/games/{roomCode}/start", s.handleStart)
	mux.HandleFunc("POST /api/games/{roomCode}/answer", s.handleAnswer)
	mux.HandleFunc("POST /api/games/{roomCode}/reveal", s.handleReveal)
	mux.HandleFunc("POST /api/games/{roomCode}/next", s.handleNext)
	mux.HandleFunc("GET /api/games/{roomCode}/state", s.handleState)

	mux.HandleFunc("GET /rooms/ws/{roomCode}", s.handleRoomWS)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON renders v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a quiz error onto an HTTP status and a tagged body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	tag := "Internal"
	switch {
	case errors.Is(err, quiz.ErrNotFound):
		status, tag = http.StatusNotFound, "NotFound"
	case errors.Is(err, quiz.ErrValidationFailed):
		status, tag = http.StatusBadRequest, "ValidationFailed"
	case errors.Is(err, quiz.ErrUnauthorized):
		status, tag = http.StatusForbidden, "Unauthorized"
	case errors.Is(err, quiz.ErrInvalidState):
		status, tag = http.StatusConflict, "InvalidState"
	case errors.Is(err, quiz.ErrResourceExhausted):
		status, tag = http.StatusInternalServerError, "ResourceExhausted"
	}
	writeJSON(w, status, map[string]string{"tag": tag, "error": err.Error()})
}

// roomCodeFrom parses the path's room code; a malformed code reads as
// room-not-found.
func roomCodeFrom(r *http.Request) (quiz.RoomCode, error) {
	return quiz.ParseRoomCode(r.PathValue("roomCode"))
}

// playerIDFrom extracts the caller-asserted identity. The core trusts this
// completely; authenticating it is out of scope here.
func playerIDFrom(r *http.Request) (string, bool) {
	id := r.Header.Get("X-Player-Id")
	return id, id != ""
}

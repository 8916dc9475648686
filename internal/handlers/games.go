// internal/handlers/games.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkozlowski/quizroom/internal/quiz"
)

type joinRequest struct {
	PlayerName string `json:"playerName"`
}

type submitAnswerRequest struct {
	AnswerIndex int `json:"answerIndex"`
}

// handleCreate allocates a fresh room and returns its code.
func (s *Server) handleCreate(w http.ResponseWriter, _ *http.Request) {
	session, err := s.Store.CreateNew()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"roomCode": session.RoomCode().String()})
}

// handleJoin adds a player and broadcasts the refreshed lobby roster.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	code, err := roomCodeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	player, err := s.Store.TryJoin(code, req.PlayerName)
	if err != nil {
		writeError(w, err)
		return
	}

	session, _ := s.Store.TryGet(code)
	s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventLobbyUpdated, Payload: map[string]interface{}{
		"roomCode": code.String(),
		"players":  session.PlayersSnapshot(),
	}})

	writeJSON(w, http.StatusOK, map[string]string{"playerId": player.ID})
}

// handleGet returns the room's code and roster.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	code, err := roomCodeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	session, ok := s.Store.TryGet(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"tag": "NotFound"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roomCode": code.String(),
		"players":  session.PlayersSnapshot(),
	})
}

// handleStart runs the host's start transition and presents the first
// question.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	code, err := roomCodeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	playerID, ok := playerIDFrom(r)
	if !ok {
		http.Error(w, "missing X-Player-Id header", http.StatusBadRequest)
		return
	}

	session, err := s.Store.TryStart(code, playerID)
	if err != nil {
		writeError(w, err)
		return
	}

	s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventGameStarted, Payload: map[string]interface{}{
		"roomCode": code.String(),
	}})
	s.broadcastCurrentQuestion(code, session)

	writeJSON(w, http.StatusOK, map[string]string{"roomCode": code.String()})
}

// handleAnswer records a player's choice for the open question.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	code, err := roomCodeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	playerID, ok := playerIDFrom(r)
	if !ok {
		http.Error(w, "missing X-Player-Id header", http.StatusBadRequest)
		return
	}

	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	q, err := s.currentQuestion(code)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := s.Store.TrySubmitAnswer(code, playerID, req.AnswerIndex, len(q.Answers)); err != nil {
		writeError(w, err)
		return
	}

	s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventAnswerSubmitted, Payload: map[string]interface{}{
		"playerId": playerID,
	}})

	writeJSON(w, http.StatusOK, map[string]string{"roomCode": code.String()})
}

// handleReveal closes the question, scores it, and publishes the answer,
// the answer distribution, and the updated scoreboard.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	code, err := roomCodeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	playerID, ok := playerIDFrom(r)
	if !ok {
		http.Error(w, "missing X-Player-Id header", http.StatusBadRequest)
		return
	}

	q, err := s.currentQuestion(code)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := s.Store.TryReveal(code, playerID, q.CorrectIndex)
	if err != nil {
		writeError(w, err)
		return
	}

	session.Mu.Lock()
	stats := session.AnswerStatsUnsafe(len(q.Answers))
	scores := session.ScoreboardUnsafe()
	session.Mu.Unlock()

	s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventAnswerRevealed, Payload: map[string]interface{}{
		"questionId":   q.ID,
		"correctIndex": q.CorrectIndex,
	}})
	s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventAnswerStatsRevealed, Payload: map[string]interface{}{
		"roomCode":      code.String(),
		"questionId":    q.ID,
		"totalPlayers":  stats.TotalPlayers,
		"totalAnswered": stats.TotalAnswered,
		"counts":        stats.Counts,
		"percentages":   stats.Percentages,
	}})
	s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventScoreboardUpdated, Payload: map[string]interface{}{
		"roomCode": code.String(),
		"scores":   scores,
	}})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roomCode":     code.String(),
		"questionId":   q.ID,
		"correctIndex": q.CorrectIndex,
	})
}

// handleNext advances to the next question, or finishes the game and
// publishes the final scoreboard.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	code, err := roomCodeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	playerID, ok := playerIDFrom(r)
	if !ok {
		http.Error(w, "missing X-Player-Id header", http.StatusBadRequest)
		return
	}

	session, err := s.Store.TryNext(code, playerID, s.Bank.Len())
	if err != nil {
		writeError(w, err)
		return
	}

	if session.Phase() == quiz.PhaseFinished {
		s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventGameFinished, Payload: map[string]interface{}{
			"roomCode": code.String(),
			"scores":   session.Scoreboard(),
		}})
	} else {
		s.broadcastCurrentQuestion(code, session)
	}

	writeJSON(w, http.StatusOK, map[string]string{"roomCode": code.String()})
}

// handleState returns the reconnect snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	code, err := roomCodeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	session, ok := s.Store.TryGet(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"tag": "NotFound"})
		return
	}

	online := s.Presence.GetOnlinePlayerIds(code.String())
	writeJSON(w, http.StatusOK, quiz.BuildStateSync(session, s.Bank, online, time.Now()))
}

// currentQuestion resolves the session's current question from the bank.
func (s *Server) currentQuestion(code quiz.RoomCode) (quiz.Question, error) {
	session, ok := s.Store.TryGet(code)
	if !ok {
		return quiz.Question{}, quiz.ErrNotFound
	}
	q, ok := s.Bank.Get(session.CurrentQuestionIndex())
	if !ok {
		return quiz.Question{}, quiz.ErrInvalidState
	}
	return q, nil
}

// broadcastCurrentQuestion publishes the freshly opened question, without
// its correct index.
func (s *Server) broadcastCurrentQuestion(code quiz.RoomCode, session *quiz.Session) {
	q, ok := s.Bank.Get(session.CurrentQuestionIndex())
	if !ok {
		return
	}
	s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventQuestionPresented, Payload: map[string]interface{}{
		"questionId": q.ID,
		"text":       q.Text,
		"answers":    q.Answers,
	}})
}

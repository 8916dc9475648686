// internal/quiz/events.go
package quiz

import (
	"math"
	"sort"
)

// EventType names a state-change notification broadcast to a room.
type EventType string

const (
	EventJoinedRoom          EventType = "JoinedRoom"
	EventLobbyUpdated        EventType = "LobbyUpdated"
	EventGameStarted         EventType = "GameStarted"
	EventQuestionPresented   EventType = "QuestionPresented"
	EventAnswerSubmitted     EventType = "AnswerSubmitted"
	EventAnswerRevealed      EventType = "AnswerRevealed"
	EventAnswerStatsRevealed EventType = "AnswerStatsRevealed"
	EventScoreboardUpdated   EventType = "ScoreboardUpdated"
	EventGameFinished        EventType = "GameFinished"
	EventPresenceUpdated     EventType = "PresenceUpdated"
	EventStateSync           EventType = "StateSync"
)

// Event is one outward notification. Payloads are plain JSON-marshalable
// structs or maps; the transport decides framing.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// BroadcastFunc delivers an event to every connection subscribed to a room.
// Implementations must not be called while holding a session lock; delivery
// is best-effort and fire-and-forget.
type BroadcastFunc func(room RoomCode, ev Event)

// ScoreEntry is one scoreboard row.
type ScoreEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
}

// ScoreboardUnsafe builds the scoreboard sorted by points descending, join
// order breaking ties. Every player appears even with zero points. Caller
// must hold s.Mu.
func (s *Session) ScoreboardUnsafe() []ScoreEntry {
	entries := make([]ScoreEntry, 0, len(s.players))
	for _, p := range s.players {
		entries = append(entries, ScoreEntry{
			PlayerID: p.ID,
			Name:     p.Name,
			Points:   s.scores[p.ID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Points > entries[j].Points
	})
	return entries
}

// Scoreboard is the locking variant of ScoreboardUnsafe.
func (s *Session) Scoreboard() []ScoreEntry {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.ScoreboardUnsafe()
}

// AnswerStats summarizes how the room answered the question that was just
// revealed.
type AnswerStats struct {
	TotalPlayers  int       `json:"totalPlayers"`
	TotalAnswered int       `json:"totalAnswered"`
	Counts        []int     `json:"counts"`
	Percentages   []float64 `json:"percentages"`
}

// AnswerStatsUnsafe tallies the current answer set over answerCount choices.
// Percentages are of players who answered, rounded to one decimal. Caller
// must hold s.Mu.
func (s *Session) AnswerStatsUnsafe(answerCount int) AnswerStats {
	stats := AnswerStats{
		TotalPlayers:  len(s.players),
		TotalAnswered: len(s.currentAnswers),
		Counts:        make([]int, answerCount),
		Percentages:   make([]float64, answerCount),
	}
	for _, answer := range s.currentAnswers {
		if answer >= 0 && answer < answerCount {
			stats.Counts[answer]++
		}
	}
	if stats.TotalAnswered > 0 {
		for i, c := range stats.Counts {
			stats.Percentages[i] = math.Round(float64(c)*1000/float64(stats.TotalAnswered)) / 10
		}
	}
	return stats
}

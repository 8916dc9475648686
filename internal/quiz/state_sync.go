// internal/quiz/state_sync.go
package quiz

import "time"

// StateSync is the point-in-time snapshot sent to (re)connecting clients so
// they can rebuild their view of the room. It carries the server clock next
// to the remaining question time so the client can compensate for network
// latency:
//
//	latencyMs ~= clientReceivedUtcMs - serverNowUtcMs
//	adjustedRemainingMs = max(0, questionEndsInMs - latencyMs)
type StateSync struct {
	RoomCode         string             `json:"roomCode"`
	Phase            Phase              `json:"phase"`
	IsQuestionOpen   bool               `json:"isQuestionOpen"`
	QuestionEndsInMs *int64             `json:"questionEndsInMs"`
	ServerNowUtcMs   int64              `json:"serverNowUtcMs"`
	OnlinePlayerIds  []string           `json:"onlinePlayerIds"`
	Players          []Player           `json:"players"`
	CurrentQuestion  *StateSyncQuestion `json:"currentQuestion"`
	Scores           []ScoreEntry       `json:"scores"`
}

// StateSyncQuestion is the client-facing view of the open question. The
// correct index is deliberately absent.
type StateSyncQuestion struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Answers []string `json:"answers"`
}

// BuildStateSync produces a read-only projection of session and presence
// state. It locks the session for the duration of the read and mutates
// nothing.
func BuildStateSync(s *Session, bank *QuestionBank, onlinePlayerIDs []string, now time.Time) StateSync {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	sync := StateSync{
		RoomCode:        s.code.String(),
		Phase:           s.phase,
		IsQuestionOpen:  s.IsQuestionOpen(),
		ServerNowUtcMs:  now.UnixMilli(),
		OnlinePlayerIds: onlinePlayerIDs,
		Players:         s.playersUnsafe(),
		Scores:          s.ScoreboardUnsafe(),
	}
	if sync.OnlinePlayerIds == nil {
		sync.OnlinePlayerIds = []string{}
	}

	if s.IsQuestionOpen() {
		// Round up so the client never shows 0 while answers are accepted.
		remaining := s.QuestionEndsIn(now)
		ms := int64((remaining + time.Millisecond - 1) / time.Millisecond)
		sync.QuestionEndsInMs = &ms

		if s.phase == PhaseInProgress {
			if q, ok := bank.Get(s.currentQuestionIndex); ok {
				sync.CurrentQuestion = &StateSyncQuestion{
					ID:      q.ID,
					Text:    q.Text,
					Answers: q.Answers,
				}
			}
		}
	}

	return sync
}

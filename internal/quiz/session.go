// internal/quiz/session.go
package quiz

import (
	"sync"
	"time"
)

// Phase is the coarse lifecycle state of a session. It only ever advances
// forward: Lobby -> InProgress -> Finished.
type Phase string

const (
	PhaseLobby      Phase = "Lobby"
	PhaseInProgress Phase = "InProgress"
	PhaseFinished   Phase = "Finished"
)

// DefaultQuestionDuration is how long a question accepts answers before the
// timer service force-reveals it.
const DefaultQuestionDuration = 15 * time.Second

// Session is the per-room aggregate: players, scores, the current question
// index and the per-question answer set.
//
// Mu serializes every mutation. The Store and the background services take it
// around each transition; all other methods and fields assume the caller
// holds it unless documented otherwise. Methods suffixed Unsafe never lock.
type Session struct {
	Mu sync.Mutex

	code      RoomCode
	createdAt time.Time

	// lastActivity is bumped on every externally observable mutation and
	// drives reaper eviction.
	lastActivity time.Time

	phase        Phase
	players      []Player
	hostPlayerID string

	currentQuestionIndex int

	// questionOpenedAt is the single source of truth for the question
	// sub-state: zero means closed, non-zero means open since that instant.
	questionOpenedAt time.Time
	questionDuration time.Duration

	currentAnswers map[string]int // playerID -> chosen answer index
	scores         map[string]int // playerID -> cumulative points
}

// NewSession builds an empty lobby-phase session for the given code.
func NewSession(code RoomCode, now time.Time) *Session {
	return &Session{
		code:                 code,
		createdAt:            now,
		lastActivity:         now,
		phase:                PhaseLobby,
		currentQuestionIndex: -1,
		questionDuration:     DefaultQuestionDuration,
		currentAnswers:       make(map[string]int),
		scores:               make(map[string]int),
	}
}

// RoomCode returns the session's identity. Immutable, safe without the lock.
func (s *Session) RoomCode() RoomCode { return s.code }

// CreatedAt is immutable, safe without the lock.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) touch(now time.Time) { s.lastActivity = now }

// AddPlayer validates the trimmed name, mints a player and appends it. The
// first player to join becomes the host. The score slot is seeded to zero so
// the scoreboard always lists every player.
func (s *Session) AddPlayer(name string, now time.Time) (Player, error) {
	player, err := newPlayer(name)
	if err != nil {
		return Player{}, err
	}

	s.players = append(s.players, player)
	if s.hostPlayerID == "" {
		s.hostPlayerID = player.ID
	}
	if _, ok := s.scores[player.ID]; !ok {
		s.scores[player.ID] = 0
	}

	s.touch(now)
	return player, nil
}

// StartGame moves Lobby -> InProgress and opens the first question. Host
// authorization is the Store's job; this method only checks structure.
func (s *Session) StartGame(now time.Time) error {
	if s.hostPlayerID == "" {
		return errf(ErrInvalidState, "game has no host")
	}
	if s.phase != PhaseLobby {
		return errf(ErrInvalidState, "game already started")
	}
	if len(s.players) < 1 {
		return errf(ErrInvalidState, "game must have at least 1 player")
	}

	s.phase = PhaseInProgress
	s.currentQuestionIndex = 0
	s.openQuestion(now)
	s.touch(now)
	return nil
}

// openQuestion resets the answer set and stamps the open time.
func (s *Session) openQuestion(now time.Time) {
	s.currentAnswers = make(map[string]int)
	s.questionOpenedAt = now
}

// IsQuestionOpen reports whether the current question accepts answers.
// Derived from the open timestamp so an inconsistent flag/timestamp pair
// cannot exist.
func (s *Session) IsQuestionOpen() bool { return !s.questionOpenedAt.IsZero() }

// SubmitAnswer records a player's choice for the open question.
// Resubmission overwrites the previous choice; last write wins.
func (s *Session) SubmitAnswer(playerID string, answerIndex int, now time.Time) error {
	if s.phase != PhaseInProgress {
		return errf(ErrInvalidState, "game not in progress")
	}
	if !s.IsQuestionOpen() {
		return errf(ErrInvalidState, "question is closed")
	}
	if !s.hasPlayer(playerID) {
		return errf(ErrInvalidState, "unknown player")
	}
	if answerIndex < 0 {
		return errf(ErrValidationFailed, "answer index must not be negative")
	}

	s.currentAnswers[playerID] = answerIndex
	if _, ok := s.scores[playerID]; !ok {
		s.scores[playerID] = 0
	}

	s.touch(now)
	return nil
}

// RevealAnswerAndScore closes the open question and awards one point to
// every player whose recorded answer matches correctIndex. Flat scoring:
// no time bonus, no penalty for wrong or missing answers.
func (s *Session) RevealAnswerAndScore(correctIndex int, now time.Time) error {
	if s.phase != PhaseInProgress {
		return errf(ErrInvalidState, "game not in progress")
	}
	if !s.IsQuestionOpen() {
		return errf(ErrInvalidState, "question already closed")
	}

	s.questionOpenedAt = time.Time{}

	for playerID, answer := range s.currentAnswers {
		if answer == correctIndex {
			s.scores[playerID]++
		}
	}

	s.touch(now)
	return nil
}

// NextQuestion advances to the next question, or finishes the game when the
// bank is exhausted. The current question must already be closed.
func (s *Session) NextQuestion(totalQuestions int, now time.Time) error {
	if s.phase != PhaseInProgress {
		return errf(ErrInvalidState, "game not in progress")
	}
	if s.IsQuestionOpen() {
		return errf(ErrInvalidState, "close current question first")
	}

	if s.OnLastQuestion(totalQuestions) {
		return s.FinishGame(now)
	}

	s.currentQuestionIndex++
	s.openQuestion(now)
	s.touch(now)
	return nil
}

// OnLastQuestion reports whether the current question is the final one for a
// bank of totalQuestions. Shared by NextQuestion and the timeout path so the
// two can never diverge.
func (s *Session) OnLastQuestion(totalQuestions int) bool {
	return s.currentQuestionIndex+1 >= totalQuestions
}

// FinishGame transitions to Finished, implicitly closing any open question.
// A no-op when already finished.
func (s *Session) FinishGame(now time.Time) error {
	if s.phase == PhaseFinished {
		return nil
	}
	if s.phase != PhaseInProgress {
		return errf(ErrInvalidState, "game not in progress")
	}

	s.phase = PhaseFinished
	s.questionOpenedAt = time.Time{}
	s.touch(now)
	return nil
}

// IsQuestionTimedOut is the pure predicate the timer service polls: true iff
// a question is open and its duration has fully elapsed. Performs no
// mutation.
func (s *Session) IsQuestionTimedOut(now time.Time) bool {
	if !s.IsQuestionOpen() {
		return false
	}
	return now.Sub(s.questionOpenedAt) >= s.questionDuration
}

// QuestionEndsIn returns the remaining open time, floored at zero. Only
// meaningful while the question is open.
func (s *Session) QuestionEndsIn(now time.Time) time.Duration {
	if !s.IsQuestionOpen() {
		return 0
	}
	remaining := s.questionOpenedAt.Add(s.questionDuration).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Session) hasPlayer(playerID string) bool {
	for _, p := range s.players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

// --- Locked accessors for callers outside the store/services ---

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.phase
}

// CurrentQuestionIndex returns the question index (-1 before start).
func (s *Session) CurrentQuestionIndex() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.currentQuestionIndex
}

// HostPlayerID returns the host's player id, empty before the first join.
func (s *Session) HostPlayerID() string {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.hostPlayerID
}

// PlayersSnapshot returns a copy of the roster in join order.
func (s *Session) PlayersSnapshot() []Player {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.playersUnsafe()
}

func (s *Session) playersUnsafe() []Player {
	out := make([]Player, len(s.players))
	copy(out, s.players)
	return out
}

// internal/quiz/store.go
package quiz

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// createRetries bounds room code allocation. Ten misses in a row means the
// code space is close to exhausted or the generator is broken.
const createRetries = 10

// Store is the concurrency-safe registry of live sessions keyed by room
// code. It owns creation, lookup, mutation dispatch and removal.
//
// The top-level map is guarded by an RWMutex so lookups for unrelated rooms
// never contend. Each mutation locks exactly one session's Mu for the
// duration of the transition and releases it before any notification is
// sent.
type Store struct {
	mu       sync.RWMutex
	sessions map[RoomCode]*Session

	gen CodeGenerator
	log *logrus.Logger
}

// NewStore builds an empty store backed by the given code generator.
func NewStore(gen CodeGenerator, log *logrus.Logger) *Store {
	return &Store{
		sessions: make(map[RoomCode]*Session),
		gen:      gen,
		log:      log,
	}
}

// CreateNew allocates a fresh room. Retries on code collision up to the
// fixed bound, then fails the request with ErrResourceExhausted.
func (st *Store) CreateNew() (*Session, error) {
	for attempt := 0; attempt < createRetries; attempt++ {
		code := st.gen.Generate()
		session := NewSession(code, time.Now())

		st.mu.Lock()
		if _, taken := st.sessions[code]; !taken {
			st.sessions[code] = session
			st.mu.Unlock()
			st.log.WithField("room", code).Info("room created")
			return session, nil
		}
		st.mu.Unlock()
	}
	st.log.Error("room code allocation exhausted retries")
	return nil, errf(ErrResourceExhausted, "failed to allocate unique room code")
}

// Exists reports whether a room is registered under the code.
func (st *Store) Exists(code RoomCode) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, ok := st.sessions[code]
	return ok
}

// TryGet looks up a session without touching it.
func (st *Store) TryGet(code RoomCode) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[code]
	return s, ok
}

// get resolves a code or reports ErrNotFound.
func (st *Store) get(code RoomCode) (*Session, error) {
	if s, ok := st.TryGet(code); ok {
		return s, nil
	}
	return nil, errf(ErrNotFound, "room %s", code)
}

// TryJoin adds a named player to the room. Name validation failures surface
// as ErrValidationFailed.
func (st *Store) TryJoin(code RoomCode, playerName string) (Player, error) {
	s, err := st.get(code)
	if err != nil {
		return Player{}, err
	}

	s.Mu.Lock()
	player, err := s.AddPlayer(playerName, time.Now())
	s.Mu.Unlock()
	if err != nil {
		return Player{}, err
	}

	st.log.WithFields(logrus.Fields{
		"room":   code,
		"player": player.ID,
		"name":   player.Name,
	}).Info("player joined")
	return player, nil
}

// TryStart runs the host-only start transition.
func (st *Store) TryStart(code RoomCode, playerID string) (*Session, error) {
	s, err := st.get(code)
	if err != nil {
		return nil, err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	if err := s.authorizeHostUnsafe(playerID); err != nil {
		return nil, err
	}
	if err := s.StartGame(time.Now()); err != nil {
		return nil, err
	}
	return s, nil
}

// TrySubmitAnswer validates the index against the question's answer count at
// this boundary, then delegates. The session itself only rejects negative
// indexes.
func (st *Store) TrySubmitAnswer(code RoomCode, playerID string, answerIndex, answersCount int) (*Session, error) {
	if answerIndex < 0 || answerIndex >= answersCount {
		return nil, errf(ErrValidationFailed, "answer index %d out of range [0,%d)", answerIndex, answersCount)
	}

	s, err := st.get(code)
	if err != nil {
		return nil, err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	if err := s.SubmitAnswer(playerID, answerIndex, time.Now()); err != nil {
		return nil, err
	}
	return s, nil
}

// TryReveal closes the open question and scores it. Host-only; the reveal
// transition itself carries no identity so the timer service can reuse it.
func (st *Store) TryReveal(code RoomCode, playerID string, correctIndex int) (*Session, error) {
	s, err := st.get(code)
	if err != nil {
		return nil, err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	if err := s.authorizeHostUnsafe(playerID); err != nil {
		return nil, err
	}
	if err := s.RevealAnswerAndScore(correctIndex, time.Now()); err != nil {
		return nil, err
	}
	return s, nil
}

// TryNext advances to the next question or finishes the game.
func (st *Store) TryNext(code RoomCode, playerID string, totalQuestions int) (*Session, error) {
	s, err := st.get(code)
	if err != nil {
		return nil, err
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()
	if err := s.authorizeHostUnsafe(playerID); err != nil {
		return nil, err
	}
	if err := s.NextQuestion(totalQuestions, time.Now()); err != nil {
		return nil, err
	}
	return s, nil
}

// TryRemove unconditionally deletes a room. Used by the reaper; removal from
// the map is independently safe, and any in-flight transition completes
// against an object no longer reachable by new lookups.
func (st *Store) TryRemove(code RoomCode) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[code]; !ok {
		return false
	}
	delete(st.sessions, code)
	st.log.WithField("room", code).Info("room removed")
	return true
}

// GetAllSessions returns a point-in-time snapshot for background scanners.
// Iterating the slice requires no lock; each session must still be locked
// individually before mutation.
func (st *Store) GetAllSessions() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}

// Len reports the number of live rooms.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// authorizeHostUnsafe is the single host-identity check for all host-only
// transitions. Caller must hold s.Mu.
func (s *Session) authorizeHostUnsafe(playerID string) error {
	if s.hostPlayerID == "" {
		return errf(ErrInvalidState, "game has no host")
	}
	if playerID != s.hostPlayerID {
		return errf(ErrUnauthorized, "only the host may do that")
	}
	return nil
}

// internal/quiz/store_test.go
package quiz

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// seqCodeGenerator hands out a fixed sequence of codes, cycling on the last
// one. Lets tests force collisions deterministically.
type seqCodeGenerator struct {
	codes []RoomCode
	i     int
}

func (g *seqCodeGenerator) Generate() RoomCode {
	c := g.codes[g.i]
	if g.i < len(g.codes)-1 {
		g.i++
	}
	return c
}

func newTestStore(t *testing.T) (*Store, RoomCode) {
	t.Helper()
	st := NewStore(&seqCodeGenerator{codes: []RoomCode{"AAAA22", "BBBB33", "CCCC44"}}, testLogger())
	s, err := st.CreateNew()
	require.NoError(t, err)
	return st, s.RoomCode()
}

func TestCreateNew(t *testing.T) {
	st := NewStore(CryptoCodeGenerator{}, testLogger())

	s, err := st.CreateNew()
	require.NoError(t, err)
	require.NotNil(t, s)

	code := s.RoomCode()
	assert.Len(t, code.String(), RoomCodeLength)
	for _, c := range code.String() {
		assert.Contains(t, codeAlphabet, string(c), "generated code uses only the safe alphabet")
	}

	assert.True(t, st.Exists(code))
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, PhaseLobby, s.Phase())
}

func TestCreateNewRetriesOnCollision(t *testing.T) {
	gen := &seqCodeGenerator{codes: []RoomCode{"AAAA22", "AAAA22", "BBBB33"}}
	st := NewStore(gen, testLogger())

	first, err := st.CreateNew()
	require.NoError(t, err)
	assert.Equal(t, RoomCode("AAAA22"), first.RoomCode())

	// Second create collides once, then lands on a fresh code.
	second, err := st.CreateNew()
	require.NoError(t, err)
	assert.Equal(t, RoomCode("BBBB33"), second.RoomCode())
	assert.Equal(t, 2, st.Len())
}

func TestCreateNewExhaustsRetries(t *testing.T) {
	gen := &seqCodeGenerator{codes: []RoomCode{"AAAA22"}}
	st := NewStore(gen, testLogger())

	_, err := st.CreateNew()
	require.NoError(t, err)

	_, err = st.CreateNew()
	assert.ErrorIs(t, err, ErrResourceExhausted)
	assert.Equal(t, 1, st.Len(), "failed create must not register a room")
}

func TestTryJoinUnknownRoom(t *testing.T) {
	st := NewStore(CryptoCodeGenerator{}, testLogger())
	_, err := st.TryJoin(RoomCode("ZZZZ99"), "Alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTryJoinPropagatesValidation(t *testing.T) {
	st, code := newTestStore(t)
	_, err := st.TryJoin(code, " ")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestTryStartHostOnly(t *testing.T) {
	st, code := newTestStore(t)
	host, err := st.TryJoin(code, "Alice")
	require.NoError(t, err)
	guest, err := st.TryJoin(code, "Bob")
	require.NoError(t, err)

	_, err = st.TryStart(code, guest.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	s, err := st.TryStart(code, host.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseInProgress, s.Phase())
}

func TestTrySubmitAnswerIndexBounds(t *testing.T) {
	st, code := newTestStore(t)
	host, err := st.TryJoin(code, "Alice")
	require.NoError(t, err)
	_, err = st.TryStart(code, host.ID)
	require.NoError(t, err)

	_, err = st.TrySubmitAnswer(code, host.ID, 4, 4)
	assert.ErrorIs(t, err, ErrValidationFailed, "index == answer count is out of range")

	_, err = st.TrySubmitAnswer(code, host.ID, -1, 4)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = st.TrySubmitAnswer(code, host.ID, 3, 4)
	assert.NoError(t, err)
}

func TestTryRevealHostOnly(t *testing.T) {
	st, code := newTestStore(t)
	host, err := st.TryJoin(code, "Alice")
	require.NoError(t, err)
	guest, err := st.TryJoin(code, "Bob")
	require.NoError(t, err)
	_, err = st.TryStart(code, host.ID)
	require.NoError(t, err)

	_, err = st.TryReveal(code, guest.ID, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)

	s, err := st.TryReveal(code, host.ID, 0)
	require.NoError(t, err)
	assert.False(t, s.IsQuestionOpen())
}

func TestTryNextFinishesGame(t *testing.T) {
	st, code := newTestStore(t)
	host, err := st.TryJoin(code, "Alice")
	require.NoError(t, err)
	_, err = st.TryStart(code, host.ID)
	require.NoError(t, err)
	_, err = st.TryReveal(code, host.ID, 0)
	require.NoError(t, err)

	s, err := st.TryNext(code, host.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, PhaseFinished, s.Phase())
}

func TestTryRemove(t *testing.T) {
	st, code := newTestStore(t)

	assert.True(t, st.TryRemove(code))
	assert.False(t, st.Exists(code))
	assert.False(t, st.TryRemove(code), "second remove reports false")
}

func TestGetAllSessionsSnapshot(t *testing.T) {
	st := NewStore(CryptoCodeGenerator{}, testLogger())
	for i := 0; i < 3; i++ {
		_, err := st.CreateNew()
		require.NoError(t, err)
	}
	assert.Len(t, st.GetAllSessions(), 3)
}

// TestConcurrentSubmits hammers one question from many goroutines and checks
// nothing is lost or double-counted.
func TestConcurrentSubmits(t *testing.T) {
	st, code := newTestStore(t)
	host, err := st.TryJoin(code, "Host")
	require.NoError(t, err)

	players := make([]Player, 0, 20)
	for i := 0; i < 20; i++ {
		p, err := st.TryJoin(code, "Player"+string(rune('A'+i)))
		require.NoError(t, err)
		players = append(players, p)
	}
	_, err = st.TryStart(code, host.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for round := 0; round < 10; round++ {
				_, err := st.TrySubmitAnswer(code, id, round%4, 4)
				assert.NoError(t, err)
			}
		}(p.ID)
	}
	wg.Wait()

	s, ok := st.TryGet(code)
	require.True(t, ok)
	s.Mu.Lock()
	defer s.Mu.Unlock()
	assert.Len(t, s.currentAnswers, 20, "every player's latest answer is recorded")
	for _, p := range players {
		assert.Equal(t, 1, s.currentAnswers[p.ID], "last write (round 9 mod 4 answers) wins")
	}
}

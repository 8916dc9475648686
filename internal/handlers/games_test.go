// internal/handlers/games_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkozlowski/quizroom/internal/presence"
	"github.com/pkozlowski/quizroom/internal/quiz"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	bank := quiz.NewQuestionBank([]quiz.Question{
		{ID: "q1", Text: "2+2?", Answers: []string{"3", "4", "5"}, CorrectIndex: 1},
		{ID: "q2", Text: "3+3?", Answers: []string{"6", "7", "8"}, CorrectIndex: 0},
	})
	store := quiz.NewStore(quiz.CryptoCodeGenerator{}, logger)
	srv := NewServer(store, bank, presence.NewTracker(), NewHub(nil, logger), logger)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON issues a request and decodes the JSON response body into out.
func doJSON(t *testing.T, method, url, playerID string, body interface{}, out interface{}) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if playerID != "" {
		req.Header.Set("X-Player-Id", playerID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func createRoom(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var resp struct {
		RoomCode string `json:"roomCode"`
	}
	status := doJSON(t, http.MethodPost, ts.URL+"/api/games", "", nil, &resp)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.RoomCode, quiz.RoomCodeLength)
	return resp.RoomCode
}

func joinRoom(t *testing.T, ts *httptest.Server, code, name string) string {
	t.Helper()
	var resp struct {
		PlayerID string `json:"playerId"`
	}
	status := doJSON(t, http.MethodPost, ts.URL+"/api/games/"+code+"/join", "",
		map[string]string{"playerName": name}, &resp)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, resp.PlayerID)
	return resp.PlayerID
}

func TestHealth(t *testing.T) {
	ts := testServer(t)
	var resp map[string]string
	status := doJSON(t, http.MethodGet, ts.URL+"/health", "", nil, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", resp["status"])
}

func TestCreateAndGetRoom(t *testing.T) {
	ts := testServer(t)
	code := createRoom(t, ts)
	joinRoom(t, ts, code, "Alice")

	var resp struct {
		RoomCode string        `json:"roomCode"`
		Players  []quiz.Player `json:"players"`
	}
	status := doJSON(t, http.MethodGet, ts.URL+"/api/games/"+code, "", nil, &resp)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, code, resp.RoomCode)
	require.Len(t, resp.Players, 1)
	assert.Equal(t, "Alice", resp.Players[0].Name)
}

func TestGetUnknownRoom(t *testing.T) {
	ts := testServer(t)
	status := doJSON(t, http.MethodGet, ts.URL+"/api/games/ZZZZ99", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Malformed codes also read as not-found.
	status = doJSON(t, http.MethodGet, ts.URL+"/api/games/bogus", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestJoinValidation(t *testing.T) {
	ts := testServer(t)
	code := createRoom(t, ts)

	var resp map[string]string
	status := doJSON(t, http.MethodPost, ts.URL+"/api/games/"+code+"/join", "",
		map[string]string{"playerName": "x"}, &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ValidationFailed", resp["tag"])
}

func TestStartRequiresHost(t *testing.T) {
	ts := testServer(t)
	code := createRoom(t, ts)
	joinRoom(t, ts, code, "Alice")
	bob := joinRoom(t, ts, code, "Bob")

	var resp map[string]string
	status := doJSON(t, http.MethodPost, ts.URL+"/api/games/"+code+"/start", bob, nil, &resp)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Unauthorized", resp["tag"])

	// Missing identity header is a plain bad request.
	status = doJSON(t, http.MethodPost, ts.URL+"/api/games/"+code+"/start", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFullGameOverREST(t *testing.T) {
	ts := testServer(t)
	code := createRoom(t, ts)
	alice := joinRoom(t, ts, code, "Alice")
	bob := joinRoom(t, ts, code, "Bob")

	base := ts.URL + "/api/games/" + code

	status := doJSON(t, http.MethodPost, base+"/start", alice, nil, nil)
	require.Equal(t, http.StatusOK, status)

	// Bob answers q1 correctly, Alice does not.
	status = doJSON(t, http.MethodPost, base+"/answer", bob, map[string]int{"answerIndex": 1}, nil)
	require.Equal(t, http.StatusOK, status)
	status = doJSON(t, http.MethodPost, base+"/answer", alice, map[string]int{"answerIndex": 0}, nil)
	require.Equal(t, http.StatusOK, status)

	var reveal struct {
		QuestionID   string `json:"questionId"`
		CorrectIndex int    `json:"correctIndex"`
	}
	status = doJSON(t, http.MethodPost, base+"/reveal", alice, nil, &reveal)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "q1", reveal.QuestionID)
	assert.Equal(t, 1, reveal.CorrectIndex)

	// Submitting after the reveal conflicts with the closed question.
	var conflict map[string]string
	status = doJSON(t, http.MethodPost, base+"/answer", bob, map[string]int{"answerIndex": 1}, &conflict)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "InvalidState", conflict["tag"])

	// Advance through q2 and finish.
	status = doJSON(t, http.MethodPost, base+"/next", alice, nil, nil)
	require.Equal(t, http.StatusOK, status)
	status = doJSON(t, http.MethodPost, base+"/reveal", alice, nil, nil)
	require.Equal(t, http.StatusOK, status)
	status = doJSON(t, http.MethodPost, base+"/next", alice, nil, nil)
	require.Equal(t, http.StatusOK, status)

	var state quiz.StateSync
	status = doJSON(t, http.MethodGet, base+"/state", "", nil, &state)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, quiz.PhaseFinished, state.Phase)
	assert.False(t, state.IsQuestionOpen)
	require.Len(t, state.Scores, 2)
	assert.Equal(t, bob, state.Scores[0].PlayerID, "Bob won")
	assert.Equal(t, 1, state.Scores[0].Points)
}

func TestAnswerIndexOutOfRange(t *testing.T) {
	ts := testServer(t)
	code := createRoom(t, ts)
	alice := joinRoom(t, ts, code, "Alice")
	base := ts.URL + "/api/games/" + code

	status := doJSON(t, http.MethodPost, base+"/start", alice, nil, nil)
	require.Equal(t, http.StatusOK, status)

	var resp map[string]string
	status = doJSON(t, http.MethodPost, base+"/answer", alice, map[string]int{"answerIndex": 3}, &resp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ValidationFailed", resp["tag"])
}

func TestStateSyncWhileQuestionOpen(t *testing.T) {
	ts := testServer(t)
	code := createRoom(t, ts)
	alice := joinRoom(t, ts, code, "Alice")
	base := ts.URL + "/api/games/" + code

	status := doJSON(t, http.MethodPost, base+"/start", alice, nil, nil)
	require.Equal(t, http.StatusOK, status)

	var state quiz.StateSync
	status = doJSON(t, http.MethodGet, base+"/state", "", nil, &state)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, quiz.PhaseInProgress, state.Phase)
	assert.True(t, state.IsQuestionOpen)
	require.NotNil(t, state.QuestionEndsInMs)
	assert.Positive(t, *state.QuestionEndsInMs)
	assert.NotZero(t, state.ServerNowUtcMs)
	require.NotNil(t, state.CurrentQuestion)
	assert.Equal(t, "q1", state.CurrentQuestion.ID)
	assert.Equal(t, []string{"3", "4", "5"}, state.CurrentQuestion.Answers)
}

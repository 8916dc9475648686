// internal/quiz/player.go
package quiz

import (
	"strings"

	"github.com/google/uuid"
)

// Player name constraints, applied to the trimmed name.
const (
	MinPlayerNameLen = 2
	MaxPlayerNameLen = 20
)

// Player is an immutable participant record. Players are created only via
// Session.AddPlayer and live as long as their owning session.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// newPlayer validates the trimmed name and mints a process-unique id.
func newPlayer(name string) (Player, error) {
	name = strings.TrimSpace(name)
	if len(name) < MinPlayerNameLen || len(name) > MaxPlayerNameLen {
		return Player{}, errf(ErrValidationFailed, "player name must be %d-%d characters", MinPlayerNameLen, MaxPlayerNameLen)
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return Player{ID: id, Name: name}, nil
}

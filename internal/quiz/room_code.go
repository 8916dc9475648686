// internal/quiz/room_code.go
package quiz

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// RoomCodeLength is the fixed length of every room code.
const RoomCodeLength = 6

// codeAlphabet deliberately omits confusable characters (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// RoomCode identifies a single quiz room. A RoomCode is only ever built
// through ParseRoomCode or a CodeGenerator, so holding one implies the
// value is well-formed.
type RoomCode string

// ParseRoomCode trims and uppercases the input, then validates length and
// alphabet. Invalid input is a construction-time failure; no silent
// normalization beyond trim/uppercase is performed.
func ParseRoomCode(raw string) (RoomCode, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("%w: room code cannot be empty", ErrNotFound)
	}
	if len(value) != RoomCodeLength {
		return "", fmt.Errorf("%w: room code must be %d characters", ErrNotFound, RoomCodeLength)
	}
	for _, c := range value {
		if !strings.ContainsRune(codeAlphabet, c) {
			return "", fmt.Errorf("%w: room code contains invalid character %q", ErrNotFound, c)
		}
	}
	return RoomCode(value), nil
}

func (c RoomCode) String() string { return string(c) }

// CodeGenerator produces candidate room codes for the Store. The Store owns
// collision handling; a generator only has to produce well-formed codes.
type CodeGenerator interface {
	Generate() RoomCode
}

// CryptoCodeGenerator draws each character uniformly from the code alphabet
// using crypto/rand.
type CryptoCodeGenerator struct{}

func (CryptoCodeGenerator) Generate() RoomCode {
	buf := make([]byte, RoomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read on supported platforms never fails; if it does,
		// the process has bigger problems than room codes.
		panic(fmt.Sprintf("quiz: crypto/rand failed: %v", err))
	}
	chars := make([]byte, RoomCodeLength)
	for i, b := range buf {
		chars[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return RoomCode(chars)
}

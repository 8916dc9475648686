// internal/quiz/question.go
package quiz

import (
	"encoding/json"
	"fmt"
	"os"
)

// Question is one entry of the question bank. Sessions reference questions
// by index and never copy them.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
}

// QuestionBank holds the ordered, immutable question list for the process
// lifetime. Reads are safe from any goroutine without locking.
type QuestionBank struct {
	questions []Question
}

// LoadQuestionBank reads and decodes the JSON question file. A missing or
// malformed file is a startup failure, not something to limp past.
func LoadQuestionBank(path string) (*QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("question bank: %w", err)
	}

	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("question bank: decode %s: %w", path, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question bank: %s contains no questions", path)
	}
	for i, q := range questions {
		if len(q.Answers) == 0 {
			return nil, fmt.Errorf("question bank: question %d (%s) has no answers", i, q.ID)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
			return nil, fmt.Errorf("question bank: question %d (%s) has correctIndex out of range", i, q.ID)
		}
	}

	return &QuestionBank{questions: questions}, nil
}

// NewQuestionBank builds a bank from an in-memory slice. Used by tests.
func NewQuestionBank(questions []Question) *QuestionBank {
	return &QuestionBank{questions: questions}
}

// Get returns the question at index i and whether the index is valid.
func (b *QuestionBank) Get(i int) (Question, bool) {
	if i < 0 || i >= len(b.questions) {
		return Question{}, false
	}
	return b.questions[i], true
}

// Len reports the number of questions in the bank.
func (b *QuestionBank) Len() int { return len(b.questions) }

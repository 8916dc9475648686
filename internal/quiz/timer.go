// internal/quiz/timer.go
package quiz

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTimerTick is how often the question timer scans for overdue
// questions. 250ms keeps forced reveals within a perceptible-but-harmless
// margin of the deadline.
const DefaultTimerTick = 250 * time.Millisecond

// QuestionTimer is the liveness service that reveals a question even when no
// host action arrives. Each tick it scans every session, and for any session
// whose question has timed out it drives the same reveal transition a host
// would, plus the finish transition when the last question times out — both
// inside one critical section, so observers never see a finished room with
// an open question.
type QuestionTimer struct {
	store     *Store
	bank      *QuestionBank
	tick      time.Duration
	broadcast BroadcastFunc
	log       *logrus.Logger
}

// NewQuestionTimer wires a timer service over the store and question bank.
// broadcast may be nil, in which case transitions still happen silently.
func NewQuestionTimer(store *Store, bank *QuestionBank, tick time.Duration, broadcast BroadcastFunc, log *logrus.Logger) *QuestionTimer {
	if tick <= 0 {
		tick = DefaultTimerTick
	}
	return &QuestionTimer{
		store:     store,
		bank:      bank,
		tick:      tick,
		broadcast: broadcast,
		log:       log,
	}
}

// Run ticks until the context is cancelled. In-flight per-room critical
// sections complete before exit; they are always short.
func (t *QuestionTimer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	t.log.WithField("tick", t.tick).Info("question timer started")
	for {
		select {
		case <-ctx.Done():
			t.log.Info("question timer stopped")
			return
		case <-ticker.C:
			t.sweep(time.Now())
		}
	}
}

// sweep visits every session once and force-reveals overdue questions.
func (t *QuestionTimer) sweep(now time.Time) {
	for _, s := range t.store.GetAllSessions() {
		t.reconcile(s, now)
	}
}

// reconcile closes one session's question if overdue. Notifications are
// collected under the lock and emitted after release so a slow subscriber
// never blocks the room.
func (t *QuestionTimer) reconcile(s *Session, now time.Time) {
	var events []Event

	s.Mu.Lock()
	if !s.IsQuestionTimedOut(now) {
		s.Mu.Unlock()
		return
	}

	q, ok := t.bank.Get(s.currentQuestionIndex)
	if !ok {
		s.Mu.Unlock()
		return
	}

	if err := s.RevealAnswerAndScore(q.CorrectIndex, now); err != nil {
		// Lost the race against a manual reveal; expected, not an error.
		s.Mu.Unlock()
		return
	}

	events = append(events,
		Event{Type: EventAnswerRevealed, Payload: map[string]interface{}{
			"questionId":   q.ID,
			"correctIndex": q.CorrectIndex,
		}},
		Event{Type: EventScoreboardUpdated, Payload: map[string]interface{}{
			"roomCode": s.code.String(),
			"scores":   s.ScoreboardUnsafe(),
		}},
	)

	if s.OnLastQuestion(t.bank.Len()) {
		if err := s.FinishGame(now); err == nil {
			events = append(events, Event{Type: EventGameFinished, Payload: map[string]interface{}{
				"roomCode": s.code.String(),
				"scores":   s.ScoreboardUnsafe(),
			}})
		}
	}
	code := s.code
	s.Mu.Unlock()

	t.log.WithFields(logrus.Fields{
		"room":     code,
		"question": q.ID,
	}).Debug("question timed out, revealed")

	if t.broadcast != nil {
		for _, ev := range events {
			t.broadcast(code, ev)
		}
	}
}

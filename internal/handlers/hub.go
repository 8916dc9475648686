// internal/handlers/hub.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/pkozlowski/quizroom/internal/journal"
	"github.com/pkozlowski/quizroom/internal/quiz"
)

// writeTimeout bounds a single WebSocket write so one dead client cannot
// back up a broadcast.
const writeTimeout = 3 * time.Second

// roomConn is one subscribed WebSocket connection.
type roomConn struct {
	id string
	ws *websocket.Conn
}

// Hub fans room events out to every connection subscribed to that room. It
// replaces nothing in the game core: sessions emit results, the hub only
// delivers. Sends happen strictly after the caller has released any session
// lock, asynchronously and best-effort.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*roomConn]struct{}

	// journal is optional; when set, every broadcast event is also pushed
	// to Redis for external consumers.
	journal *journal.Journal
	log     *logrus.Logger
}

// NewHub returns an empty hub. journal may be nil.
func NewHub(j *journal.Journal, log *logrus.Logger) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*roomConn]struct{}),
		journal: j,
		log:     log,
	}
}

func (h *Hub) join(room string, c *roomConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*roomConn]struct{})
		h.rooms[room] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) leave(room string, c *roomConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast sends an event to every connection in the room. Satisfies
// quiz.BroadcastFunc.
func (h *Hub) Broadcast(room quiz.RoomCode, ev quiz.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).WithField("event", ev.Type).Error("marshal broadcast event failed")
		return
	}

	h.mu.RLock()
	conns := make([]*roomConn, 0, len(h.rooms[room.String()]))
	for c := range h.rooms[room.String()] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	go func() {
		for _, c := range conns {
			h.write(c, data, ev.Type)
		}
	}()

	if h.journal != nil {
		go h.journal.Publish(journal.EventRecord{
			RoomCode:  room.String(),
			EventType: string(ev.Type),
			Payload:   ev.Payload,
			Timestamp: time.Now().UnixMilli(),
		})
	}
}

// SendTo delivers an event to a single connection, e.g. the private
// StateSync on join.
func (h *Hub) SendTo(c *roomConn, ev quiz.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).WithField("event", ev.Type).Error("marshal private event failed")
		return
	}
	h.write(c, data, ev.Type)
}

func (h *Hub) write(c *roomConn, data []byte, evType quiz.EventType) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"conn":  c.id,
			"event": evType,
		}).Warn("websocket write failed")
	}
}

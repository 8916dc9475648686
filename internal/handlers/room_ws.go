// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/pkozlowski/quizroom/internal/middleware"
	"github.com/pkozlowski/quizroom/internal/quiz"
)

// roomMessage is the envelope for inbound WebSocket messages.
type roomMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId,omitempty"`
}

// handleRoomWS subscribes a connection to a room's event stream. On accept
// it sends JoinedRoom plus a private StateSync; afterwards it only reacts to
// identify/ping messages — every game action goes through the REST API.
func (s *Server) handleRoomWS(w http.ResponseWriter, r *http.Request) {
	code, err := roomCodeFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !s.Store.Exists(code) {
		writeJSON(w, http.StatusNotFound, map[string]string{"tag": "NotFound"})
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // Adjust for production security.
	})
	if err != nil {
		s.Logger.WithError(err).Warn("websocket accept failed")
		return
	}
	defer ws.Close(websocket.StatusInternalError, "handler exit")

	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

	conn := &roomConn{id: uuid.NewString(), ws: ws}
	s.Hub.join(code.String(), conn)
	defer s.dropConnection(code, conn)

	s.Hub.SendTo(conn, quiz.Event{Type: quiz.EventJoinedRoom, Payload: map[string]string{
		"roomCode": code.String(),
	}})
	if session, ok := s.Store.TryGet(code); ok {
		online := s.Presence.GetOnlinePlayerIds(code.String())
		s.Hub.SendTo(conn, quiz.Event{
			Type:    quiz.EventStateSync,
			Payload: quiz.BuildStateSync(session, s.Bank, online, time.Now()),
		})
	}

	readErr := s.readRoomMessages(r.Context(), code, conn)
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, readErr)
	ws.Close(websocket.StatusNormalClosure, "")
}

// readRoomMessages loops until the connection closes or the context ends.
func (s *Server) readRoomMessages(ctx context.Context, code quiz.RoomCode, conn *roomConn) error {
	for {
		msgType, data, err := conn.ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg roomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Logger.WithError(err).Debug("invalid websocket JSON, ignoring")
			continue
		}

		switch msg.Type {
		case "identify":
			if msg.PlayerID == "" {
				continue
			}
			s.Presence.Identify(conn.id, code.String(), msg.PlayerID)
			s.broadcastPresence(code)

		case "ping":
			s.Hub.SendTo(conn, quiz.Event{Type: "pong"})

		default:
			s.Logger.WithField("type", msg.Type).Debug("unknown websocket message type")
		}
	}
}

// dropConnection deregisters the connection from the hub and presence, then
// tells the room who is still online.
func (s *Server) dropConnection(code quiz.RoomCode, conn *roomConn) {
	s.Hub.leave(code.String(), conn)

	if _, identified := s.Presence.RoomForConnection(conn.id); identified {
		s.Presence.RemoveByConnection(conn.id)
		s.broadcastPresence(code)
	}
}

func (s *Server) broadcastPresence(code quiz.RoomCode) {
	s.Hub.Broadcast(code, quiz.Event{Type: quiz.EventPresenceUpdated, Payload: map[string]interface{}{
		"roomCode":        code.String(),
		"onlinePlayerIds": s.Presence.GetOnlinePlayerIds(code.String()),
	}})
}

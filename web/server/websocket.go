package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSMessage is the frame sent for every render event
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// wsCommand is a client-to-server frame
type wsCommand struct {
	Type string `json:"type"` // "cancel"
}

// handleWebSocketRender streams the same events as handleRender over a
// WebSocket. Request parameters come from the query string; the client may
// send {"type":"cancel"} or close the socket to stop the render.
func (s *Server) handleWebSocketRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request: " + err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: control frames and client commands
	go func() {
		defer cancel()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd wsCommand
			if json.Unmarshal(msg, &cmd) == nil && cmd.Type == "cancel" {
				return
			}
		}
	}()

	events, done := startEventWriter(func(event SSEEvent) error {
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(WSMessage{Type: event.Type, Data: json.RawMessage(event.Data)})
	})

	s.runRender(ctx, req, events)
	close(events)
	<-done

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "render finished"))
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/reachwell/reachwell/internal/monitoring"
	"github.com/reachwell/reachwell/internal/pose"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  maxFrameBody,
	WriteBufferSize: maxFrameBody,
	// The socket is served to the local capture page only; the listener
	// binds loopback by default.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveFrameSocket streams landmark frames in and status snapshots out
// over one websocket. Each received frame is processed immediately and
// answered with the resulting snapshot, so the client paces the loop.
func (s *Server) serveFrameSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxFrameBody)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				monitoring.Logf("ws: read error: %v", err)
			}
			return
		}

		var frame pose.Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			if werr := conn.WriteJSON(map[string]string{"error": "invalid frame"}); werr != nil {
				return
			}
			continue
		}

		s.runner.Submit(&frame)
		st := s.runner.Tick(s.clock.Now())
		if err := conn.WriteJSON(st); err != nil {
			monitoring.Logf("ws: write error: %v", err)
			return
		}
	}
}

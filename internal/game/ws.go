package game

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type          string `json:"type"` // "ask"
	SessionID     string `json:"session_id"`
	Content       string `json:"content"`
	HintRequested bool   `json:"hint_requested"`
}

// wsEvent is the outgoing WebSocket message format. The same event
// types flow over SSE and WebSocket; here the type rides in the JSON
// body instead of the SSE event field.
type wsEvent struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
}

// RegisterWebSocket mounts the WebSocket chat endpoint. A single
// connection can interleave exchanges across sessions; events carry
// the session ID so the client can demultiplex.
func RegisterWebSocket(r chi.Router, engine *Engine) {
	r.Get("/ws/game", handleWebSocket(engine))
}

func handleWebSocket(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("game: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		player := playerID(r)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("game: websocket read: %v", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendWsError(conn, "", "invalid message format")
				continue
			}

			switch req.Type {
			case "ask":
				handleWsAsk(conn, r, engine, player, req)
			default:
				sendWsError(conn, req.SessionID, "unknown message type: "+req.Type)
			}
		}
	}
}

func handleWsAsk(conn *websocket.Conn, r *http.Request, engine *Engine, player string, req wsRequest) {
	if req.SessionID == "" {
		sendWsError(conn, "", "session_id is required")
		return
	}

	started := false
	sink := func(ev Event) error {
		started = true
		return conn.WriteJSON(wsEvent{Type: ev.Type, SessionID: req.SessionID, Data: ev.Data})
	}

	// Failures before the first event never reach the sink; surface
	// them here. Mid-stream failures already arrived as error events.
	_, err := engine.Exchange(r.Context(), req.SessionID, player, req.Content, req.HintRequested, sink)
	if err != nil && !started {
		sendWsError(conn, req.SessionID, err.Error())
	}
}

func sendWsError(conn *websocket.Conn, sessionID, msg string) {
	if err := conn.WriteJSON(wsEvent{Type: EventError, SessionID: sessionID, Data: ErrorPayload{Error: msg}}); err != nil {
		log.Printf("game: websocket write: %v", err)
	}
}

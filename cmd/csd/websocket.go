package main

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kallenvale/circuitsage/internal/llm"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is one frame relayed over /stream/chat: either a chat turn
// from the client or a streamed chunk/status update back to it.
type wsMessage struct {
	Type    string    `json:"type"`
	Content string    `json:"content,omitempty"`
	Done    bool      `json:"done,omitempty"`
	Error   string    `json:"error,omitempty"`
	Usage   llm.Usage `json:"usage,omitempty"`
}

// wsHub tracks connected shell processes; handleWSChat relays the
// backend's chat stream chunks to each one. Grounded on tarsy's WSHub register/unregister/broadcast
// loop, narrowed here to a per-connection chat relay rather than a
// fan-out broadcast (there is no shared session state to broadcast; each
// shell owns its own conversation).
type wsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func newWSHub() *wsHub {
	return &wsHub{clients: make(map[*websocket.Conn]bool)}
}

func (h *wsHub) run() {
	// Reserved for future cross-connection broadcast (e.g. shared
	// simulation-progress notifications); today each connection is
	// handled independently by handleWSChat.
}

func (h *wsHub) register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *wsHub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// handleWSChat upgrades the connection and relays chat turns straight to
// the inference backend's streaming Chat endpoint, forwarding each Chunk
// to the connected shell as a wsMessage frame. It bypasses the
// Orchestrator's fallback chain deliberately: fallback requires
// buffering a full reply to detect a ModelUnavailable error before
// retrying on another model, which defeats token-by-token streaming, so
// the current model (Orchestrator.CurrentModel) is used directly here.
func (d *daemon) handleWSChat(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		d.log.Error("websocket upgrade failed", "error", err)
		return
	}
	d.hub.register(conn)
	defer d.hub.unregister(conn)

	for {
		var in struct {
			Messages []llm.Message `json:"messages"`
		}
		if err := conn.ReadJSON(&in); err != nil {
			return
		}

		chunks, err := d.backend.ChatStream(c.Request.Context(), in.Messages, llm.ChatOptions{Model: d.orch.CurrentModel()})
		if err != nil {
			conn.WriteJSON(wsMessage{Type: "error", Error: err.Error()})
			continue
		}
		for chunk := range chunks {
			msg := wsMessage{Type: "chunk", Content: chunk.Content, Done: chunk.Done}
			if chunk.Done {
				msg.Usage = chunk.Usage
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// Package ws adapts gorilla/websocket connections to fanout.Conn, so a
// browser client can subscribe to a room and receive the Executor's
// lifecycle broadcasts (§6.3).
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rezkam/mono/internal/fanout"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking is left to a reverse proxy in front of this service;
	// CORS policy is out of scope here (§0).
	CheckOrigin: func(r *http.Request) bool { return true },
}

// conn wraps a gorilla/websocket.Conn, serialising writes so fanout's
// broadcast loop never races with this connection's own ping handling.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) Send(msg fanout.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(msg)
}

func (c *conn) Close() error {
	return c.ws.Close()
}

// Handler returns an http.HandlerFunc that upgrades requests to websockets
// and registers them with manager.
func Handler(manager *fanout.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := r.URL.Query().Get("room")
		accountID := r.URL.Query().Get("account_id")

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.WarnContext(r.Context(), "ws: upgrade failed", "error", err)
			return
		}

		id := uuid.NewString()
		c := &conn{ws: wsConn}
		manager.Connect(id, c, room, accountID)

		readLoop(manager, id, c)
	}
}

// readLoop blocks until the connection closes or errors, replying to
// inline "ping" frames with "pong" and discarding everything else; clients
// only ever receive data via fanout broadcasts.
func readLoop(manager *fanout.Manager, id string, c *conn) {
	defer manager.Disconnect(id)
	defer c.ws.Close()

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if isPing(payload) {
			_ = c.Send(fanout.Message{Type: "pong"})
		}
	}
}

func isPing(payload []byte) bool {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return string(payload) == "ping"
	}
	return probe.Type == "ping"
}

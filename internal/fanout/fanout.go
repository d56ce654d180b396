// Package fanout implements the connection registry and room-scoped
// broadcast (spec component 4.G), adapted from the connection_manager.py
// reference: the same connections/rooms map pair, the same disconnect-on
// write-error policy, and the same account-id filtering rule (nil/empty
// account id on a connection is a catch-all subscriber), expressed over a
// small Conn interface instead of a concrete websocket type so the registry
// is testable without a real socket.
package fanout

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultRoom is the room the Executor publishes lifecycle events to.
const DefaultRoom = "jobs"

// Message is the envelope every event is wrapped in before it reaches a
// connection (§4.G).
type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
	AccountID string `json:"accountID,omitempty"`
}

// Conn is the minimal send/close contract a transport must satisfy to
// register with the Manager. internal/ws adapts a gorilla/websocket
// connection to this interface.
type Conn interface {
	Send(msg Message) error
	Close() error
}

type connInfo struct {
	conn      Conn
	room      string
	accountID string
}

// Manager is the connection registry and broadcaster.
type Manager struct {
	mu    sync.Mutex
	conns map[string]connInfo
	rooms map[string]map[string]struct{}
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{
		conns: make(map[string]connInfo),
		rooms: make(map[string]map[string]struct{}),
	}
}

// Connect registers conn under connID, joining room and optionally scoping
// it to accountID. An empty accountID makes the connection a catch-all
// subscriber within its room.
func (m *Manager) Connect(connID string, conn Conn, room, accountID string) {
	if room == "" {
		room = DefaultRoom
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conns[connID] = connInfo{conn: conn, room: room, accountID: accountID}
	if m.rooms[room] == nil {
		m.rooms[room] = make(map[string]struct{})
	}
	m.rooms[room][connID] = struct{}{}
}

// Disconnect removes connID from both maps. Idempotent.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnectLocked(connID)
}

func (m *Manager) disconnectLocked(connID string) {
	info, ok := m.conns[connID]
	if !ok {
		return
	}
	delete(m.conns, connID)
	if set, ok := m.rooms[info.room]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(m.rooms, info.room)
		}
	}
}

// BroadcastToRoom sends msg to every connection in room. If accountID is
// non-empty, a connection receives the message iff its own accountID is
// empty (catch-all) or equals accountID. Connections whose Send fails are
// disconnected after the full pass completes.
func (m *Manager) BroadcastToRoom(msg Message, room, accountID string) {
	m.mu.Lock()
	connIDs, ok := m.rooms[room]
	if !ok {
		m.mu.Unlock()
		return
	}
	targets := make([]string, 0, len(connIDs))
	for id := range connIDs {
		targets = append(targets, id)
	}
	snapshot := make(map[string]connInfo, len(targets))
	for _, id := range targets {
		snapshot[id] = m.conns[id]
	}
	m.mu.Unlock()

	var failed []string
	for _, id := range targets {
		info := snapshot[id]
		if accountID != "" && info.accountID != "" && info.accountID != accountID {
			continue
		}
		if err := info.conn.Send(msg); err != nil {
			slog.Warn("fanout: send failed, disconnecting", "conn_id", id, "room", room, "error", err)
			failed = append(failed, id)
		}
	}

	if len(failed) == 0 {
		return
	}
	m.mu.Lock()
	for _, id := range failed {
		m.disconnectLocked(id)
	}
	m.mu.Unlock()
}

// Broadcast sends msg to every connection regardless of room, with the same
// deferred-disconnect-on-error policy as BroadcastToRoom.
func (m *Manager) Broadcast(msg Message) {
	m.mu.Lock()
	targets := make([]string, 0, len(m.conns))
	snapshot := make(map[string]connInfo, len(m.conns))
	for id, info := range m.conns {
		targets = append(targets, id)
		snapshot[id] = info
	}
	m.mu.Unlock()

	var failed []string
	for _, id := range targets {
		if err := snapshot[id].conn.Send(msg); err != nil {
			slog.Warn("fanout: send failed, disconnecting", "conn_id", id, "error", err)
			failed = append(failed, id)
		}
	}

	if len(failed) == 0 {
		return
	}
	m.mu.Lock()
	for _, id := range failed {
		m.disconnectLocked(id)
	}
	m.mu.Unlock()
}

// ConnectionCount returns the total number of registered connections.
func (m *Manager) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// RoomCount returns the number of connections currently in room.
func (m *Manager) RoomCount(room string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms[room])
}

// Publish implements executor.Publisher: every lifecycle event from the
// dispatch loop broadcasts to DefaultRoom, scoped to the job's accountID.
func (m *Manager) Publish(eventType string, payload any, accountID string) {
	m.BroadcastToRoom(Message{
		Type:      eventType,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		AccountID: accountID,
	}, DefaultRoom, accountID)
}

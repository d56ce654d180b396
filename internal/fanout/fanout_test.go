package fanout

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	received []Message
	failNext bool
	closed   bool
}

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		return errors.New("send failed")
	}
	c.received = append(c.received, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestConnectAndBroadcastToRoom(t *testing.T) {
	m := New()
	a := &fakeConn{}
	b := &fakeConn{}
	m.Connect("a", a, "jobs", "")
	m.Connect("b", b, "jobs", "")

	m.BroadcastToRoom(Message{Type: "job.updated"}, "jobs", "")

	require.Len(t, a.received, 1)
	require.Len(t, b.received, 1)
}

func TestBroadcastToRoomFiltersByAccountID(t *testing.T) {
	m := New()
	scoped := &fakeConn{}
	catchAll := &fakeConn{}
	other := &fakeConn{}
	m.Connect("scoped", scoped, "jobs", "acct-1")
	m.Connect("catchall", catchAll, "jobs", "")
	m.Connect("other", other, "jobs", "acct-2")

	m.BroadcastToRoom(Message{Type: "job.updated"}, "jobs", "acct-1")

	require.Len(t, scoped.received, 1)
	require.Len(t, catchAll.received, 1)
	require.Len(t, other.received, 0)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	m := New()
	conn := &fakeConn{}
	m.Connect("a", conn, "jobs", "")
	m.Disconnect("a")
	require.NotPanics(t, func() { m.Disconnect("a") })
	require.Equal(t, 0, m.ConnectionCount())
}

func TestBroadcastDisconnectsOnSendError(t *testing.T) {
	m := New()
	bad := &fakeConn{failNext: true}
	m.Connect("bad", bad, "jobs", "")
	require.Equal(t, 1, m.RoomCount("jobs"))

	m.BroadcastToRoom(Message{Type: "ping"}, "jobs", "")

	require.Equal(t, 0, m.RoomCount("jobs"))
	require.Equal(t, 0, m.ConnectionCount())
}

func TestBroadcastToAllConnections(t *testing.T) {
	m := New()
	a := &fakeConn{}
	b := &fakeConn{}
	m.Connect("a", a, "jobs", "")
	m.Connect("b", b, "dashboard", "")

	m.Broadcast(Message{Type: "scheduler.status"})

	require.Len(t, a.received, 1)
	require.Len(t, b.received, 1)
}

func TestPublishScopesToAccountID(t *testing.T) {
	m := New()
	scoped := &fakeConn{}
	m.Connect("scoped", scoped, DefaultRoom, "acct-1")

	m.Publish("job.completed", map[string]string{"jobID": "j1"}, "acct-1")

	require.Len(t, scoped.received, 1)
	require.Equal(t, "job.completed", scoped.received[0].Type)
}

package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elimu-cbe/cbe-platform/internal/models"
)

func newTestHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Stop()
	})
	return hub, cancel
}

func connect(t *testing.T, hub *Hub, userID string, role models.UserRole, buffer int) *Client {
	t.Helper()
	client := &Client{
		hub:    hub,
		Send:   make(chan []byte, buffer),
		UserID: userID,
		Role:   role,
	}
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.IsUserOnline(userID)
	}, time.Second, 5*time.Millisecond)

	return client
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case payload := <-client.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubNotifyUser(t *testing.T) {
	hub, _ := newTestHub(t)

	student := connect(t, hub, "s1", models.RoleStudent, 4)
	other := connect(t, hub, "s2", models.RoleStudent, 4)

	hub.NotifyUser("s1", Message{Type: "progress_updated", Data: map[string]any{"score": 67.0}})

	msg := receive(t, student)
	assert.Equal(t, "progress_updated", msg.Type)
	assert.Empty(t, other.Send)
}

func TestHubNotifyUserOfflineIsNoop(t *testing.T) {
	hub, _ := newTestHub(t)

	// No clients connected; must not panic or block
	hub.NotifyUser("ghost", Message{Type: "announcement"})
	assert.False(t, hub.IsUserOnline("ghost"))
}

func TestHubNotifyRole(t *testing.T) {
	hub, _ := newTestHub(t)

	teacher := connect(t, hub, "t1", models.RoleTeacher, 4)
	student := connect(t, hub, "s1", models.RoleStudent, 4)

	hub.NotifyRole(models.RoleTeacher, Message{Type: "resource_uploaded"})

	msg := receive(t, teacher)
	assert.Equal(t, "resource_uploaded", msg.Type)
	assert.Empty(t, student.Send)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub, _ := newTestHub(t)

	slow := connect(t, hub, "s1", models.RoleStudent, 1)

	hub.NotifyUser("s1", Message{Type: "first"})
	hub.NotifyUser("s1", Message{Type: "second"}) // buffer full, dropped

	msg := receive(t, slow)
	assert.Equal(t, "first", msg.Type)
	assert.Empty(t, slow.Send, "second message should have been dropped")
}

func TestHubReconnectReplacesConnection(t *testing.T) {
	hub, _ := newTestHub(t)

	first := connect(t, hub, "s1", models.RoleStudent, 4)
	second := connect(t, hub, "s1", models.RoleStudent, 4)

	// The first connection's channel is closed on replacement
	require.Eventually(t, func() bool {
		select {
		case _, open := <-first.Send:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	hub.NotifyUser("s1", Message{Type: "progress_updated"})
	msg := receive(t, second)
	assert.Equal(t, "progress_updated", msg.Type)
}

func TestHubStopClearsOnlineUsers(t *testing.T) {
	hub := NewHub(slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	connect(t, hub, "s1", models.RoleStudent, 4)
	connect(t, hub, "t1", models.RoleTeacher, 4)
	assert.Len(t, hub.OnlineUsers(), 2)

	hub.Stop()

	assert.Empty(t, hub.OnlineUsers())
	assert.False(t, hub.IsUserOnline("s1"))
}

func TestHubBroadcast(t *testing.T) {
	hub, _ := newTestHub(t)

	a := connect(t, hub, "s1", models.RoleStudent, 4)
	b := connect(t, hub, "t1", models.RoleTeacher, 4)

	hub.Broadcast(Message{Type: "announcement", Data: "exams start monday"})

	assert.Equal(t, "announcement", receive(t, a).Type)
	assert.Equal(t, "announcement", receive(t, b).Type)
}

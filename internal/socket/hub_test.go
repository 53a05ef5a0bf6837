package socket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// dialHub spins up a server that upgrades the request and registers the
// resulting connection, then dials it.
func dialHub(t *testing.T, h *Hub, userID, sessionID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		h.Register(userID, sessionID, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	<-registered
	return conn
}

func TestPublishChangeDeliversToEverySessionOfUser(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	c1 := dialHub(t, h, "u1", "sess-1")
	c2 := dialHub(t, h, "u1", "sess-2")

	h.PublishChange("u1", "notifications", EventInsert, map[string]string{"id": "n1"})

	for _, conn := range []*websocket.Conn{c1, c2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event ChangeEvent
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, EventInsert, event.EventType)
		assert.Equal(t, "notifications", event.Table)
	}
}

// Concurrent submits and reviews can publish to the same recipient at once;
// all writes to one connection must be serialized.
func TestPublishChangeConcurrentToSameConnection(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	conn := dialHub(t, h, "u1", "sess-1")

	const goroutines = 32
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				h.PublishChange("u1", "notifications", EventUpdate, map[string]string{"id": "n1"})
			}
		}()
	}

	received := 0
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for received < goroutines*perGoroutine {
		var event ChangeEvent
		require.NoError(t, conn.ReadJSON(&event))
		received++
	}
	wg.Wait()

	assert.Equal(t, goroutines*perGoroutine, received)
}

func TestCloseSessionLeavesOtherSessionConnected(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	closed := dialHub(t, h, "u1", "sess-1")
	kept := dialHub(t, h, "u1", "sess-2")

	h.CloseSession("u1", "sess-1")
	h.PublishChange("u1", "notifications", EventInsert, map[string]string{"id": "n1"})

	kept.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event ChangeEvent
	require.NoError(t, kept.ReadJSON(&event))
	assert.Equal(t, EventInsert, event.EventType)

	closed.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := closed.ReadMessage()
	assert.Error(t, err)
}

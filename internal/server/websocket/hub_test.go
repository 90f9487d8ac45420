package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	hub := NewHub(&logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub, cancel
}

func metronome(measure int) Message {
	return Message{
		Type:      "metronomeMessage",
		Timestamp: utc.Now(),
		Data:      map[string]int{"measure": measure, "beat": 1, "frac": 0},
	}
}

// TestHub_NewHub tests hub creation.
func TestHub_NewHub(t *testing.T) {
	logger := zerolog.Nop()
	hub := NewHub(&logger)

	require.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub, _ := runHub(t)

	a := NewClient(hub, nil)
	b := NewClient(hub, nil)
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.NotEqual(t, a.ID(), b.ID())

	hub.Broadcast(metronome(2))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			assert.Equal(t, "metronomeMessage", msg.Type)
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}

	hub.Unregister(a)
	hub.Unregister(a)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	_, open := <-a.send
	assert.False(t, open, "unregistered client queue must be closed")
}

func TestHub_BroadcastWithNoClients(t *testing.T) {
	hub, _ := runHub(t)
	assert.NotPanics(t, func() { hub.Broadcast(metronome(1)) })
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_SlowClientEvicted(t *testing.T) {
	hub, _ := runHub(t)

	slow := NewClient(hub, nil)
	require.True(t, hub.Register(slow))

	for i := 0; i <= cap(slow.send); i++ {
		hub.Broadcast(metronome(i))
	}

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	drained := 0
	for range slow.send {
		drained++
	}
	assert.Equal(t, cap(slow.send), drained)

	next := NewClient(hub, nil)
	require.True(t, hub.Register(next))
	hub.Broadcast(metronome(99))
	select {
	case msg := <-next.send:
		assert.Equal(t, "metronomeMessage", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("hub stopped delivering after eviction")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := runHub(t)

	c := NewClient(hub, nil)
	require.True(t, hub.Register(c))

	cancel()
	<-hub.done

	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, hub.Register(NewClient(hub, nil)), "register after shutdown must not block")
	hub.Unregister(c)
}

func TestClient_EndToEnd(t *testing.T) {
	hub, _ := runHub(t)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		if !hub.Register(client) {
			_ = conn.Close()
			return
		}
		go client.WritePump()
		go client.ReadPump()
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(Message{
		Type: "metronomeMessage",
		Data: map[string]int64{"measure": 12, "beat": 3, "frac": 2},
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type string           `json:"type"`
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "metronomeMessage", frame.Type)
	assert.Equal(t, map[string]int64{"measure": 12, "beat": 3, "frac": 2}, frame.Data)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

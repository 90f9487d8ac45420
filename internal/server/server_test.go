package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/measurecast/internal/bridge"
	"github.com/agentstation/measurecast/internal/metrics"
	"github.com/agentstation/measurecast/internal/server/events"
	"github.com/agentstation/measurecast/pkg/logging"
	"github.com/agentstation/measurecast/pkg/timing"
)

type frame struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      timing.Payload `json:"data"`
}

// startServer runs s behind an httptest server until the test ends.
func startServer(t *testing.T, s *Server) *httptest.Server {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		cancel()
		<-done
		ts.Close()
	})
	return ts
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StaticDir = ""
	s := New(cfg, logging.NewNopLogger(), opts...)
	return s, startServer(t, s)
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.WSHub().ClientCount() == n },
		2*time.Second, 5*time.Millisecond, "expected %d websocket clients", n)
}

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("%d subscribers", n), func(t *testing.T) {
			s, ts := newTestServer(t)

			conns := make([]*websocket.Conn, n)
			for i := range conns {
				conns[i] = dial(t, ts, "/ws")
			}
			waitClients(t, s, n)

			s.Broadcaster().Broadcast(timing.Event{Measure: 12, Beat: 3, FractionalPosition: 2})

			for _, conn := range conns {
				f := readFrame(t, conn)
				assert.Equal(t, "metronomeMessage", f.Type)
				assert.Equal(t, timing.Payload{Measure: 12, Beat: 3, Frac: 2}, f.Data)
				assert.False(t, f.Timestamp.IsZero())
				assert.Equal(t, time.UTC, f.Timestamp.Location())
			}
		})
	}
}

func TestSocketAlias(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts, "/socket")
	waitClients(t, s, 1)

	s.Broadcaster().Broadcast(timing.Event{Measure: 1, Beat: 1})
	assert.Equal(t, int64(1), readFrame(t, conn).Data.Measure)
}

func TestBrokenSubscriberDoesNotAffectOthers(t *testing.T) {
	s, ts := newTestServer(t)

	healthy := dial(t, ts, "/ws")
	broken := dial(t, ts, "/ws")
	waitClients(t, s, 2)

	// Drop the TCP connection without a close handshake.
	require.NoError(t, broken.UnderlyingConn().Close())

	for i := int64(1); i <= 3; i++ {
		s.Broadcaster().Broadcast(timing.Event{Measure: i, Beat: 1})
	}

	for i := int64(1); i <= 3; i++ {
		assert.Equal(t, i, readFrame(t, healthy).Data.Measure)
	}
	waitClients(t, s, 1)
}

func TestDisconnectRemovesSubscriber(t *testing.T) {
	s, ts := newTestServer(t)

	conn := dial(t, ts, "/ws")
	waitClients(t, s, 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	waitClients(t, s, 0)

	assert.NotPanics(t, func() {
		s.Broadcaster().Broadcast(timing.Event{Measure: 1, Beat: 1})
	})
}

func TestSSEStream(t *testing.T) {
	s, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return s.SSEBroadcaster().ClientCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	s.Broadcaster().Broadcast(timing.Event{Measure: 2, Beat: 1, FractionalPosition: 0})

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if line == "event: metronomeMessage\n" {
			break
		}
	}
	_, err = reader.ReadString('\n') // id
	require.NoError(t, err)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.JSONEq(t, `{"measure":2,"beat":1,"frac":0}`, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
}

func TestHealthAndReady(t *testing.T) {
	var bound atomic.Bool
	bound.Store(true)
	_, ts := newTestServer(t, WithReadiness(func() error {
		if !bound.Load() {
			return fmt.Errorf("OSC listener not bound")
		}
		return nil
	}))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"websocket_clients":0`)

	bound.Store(false)
	resp, err = http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()

	cfg := DefaultConfig()
	cfg.StaticDir = ""
	cfg.MetricsEnabled = true
	s := New(cfg, logging.NewNopLogger(), WithMetrics(m))
	ts := startServer(t, s)

	dial(t, ts, "/ws")
	waitClients(t, s, 1)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `measurecast_push_subscribers{transport="websocket"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	_, ts := newTestServer(t, WithMetrics(metrics.New()))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaticEmbeddedFallback(t *testing.T) {
	s, ts := newTestServer(t)
	assert.Equal(t, "embedded", s.StaticSource())

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Measure Visualizer")

	resp, err = http.Post(ts.URL+"/", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "GET, HEAD", resp.Header.Get("Allow"))
}

func TestStaticDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>custom</h1>"), 0o644))

	cfg := DefaultConfig()
	cfg.StaticDir = dir
	s := New(cfg, logging.NewNopLogger())
	ts := startServer(t, s)
	assert.Equal(t, dir, s.StaticSource())

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "<h1>custom</h1>", string(body))
}

func TestCORSEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StaticDir = ""
	cfg.CORSEnabled = true
	ts := startServer(t, New(cfg, logging.NewNopLogger()))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://visualizer.test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// TestDatagramToBrowser drives a real UDP datagram through the bridge to a
// WebSocket subscriber.
func TestDatagramToBrowser(t *testing.T) {
	s, ts := newTestServer(t)
	conn := dial(t, ts, "/ws")
	waitClients(t, s, 1)

	cfg := bridge.DefaultConfig()
	cfg.Port = 0
	b := bridge.New(cfg, s.Broadcaster(), logging.NewNopLogger())
	require.NoError(t, b.Open())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Serve(ctx) }()

	udp, err := net.DialUDP("udp", nil, b.Addr().(*net.UDPAddr))
	require.NoError(t, err)
	defer udp.Close()

	send := func(args ...any) {
		data, err := osc.NewMessage("/measure", args...).MarshalBinary()
		require.NoError(t, err)
		_, err = udp.Write(data)
		require.NoError(t, err)
	}

	send(int32(2), int32(1)) // wrong arity, dropped
	send(int32(2), int32(1), int32(0))

	f := readFrame(t, conn)
	assert.Equal(t, "metronomeMessage", f.Type)
	assert.Equal(t, timing.Payload{Measure: 2, Beat: 1, Frac: 0}, f.Data)
}

// captureSubscriber records events from the broker.
type captureSubscriber struct {
	events chan events.Event
	closed atomic.Bool
}

func (c *captureSubscriber) Send(e events.Event) error {
	select {
	case c.events <- e:
	default:
	}
	return nil
}

func (c *captureSubscriber) Close() error {
	c.closed.Store(true)
	return nil
}

func TestWithSubscriber(t *testing.T) {
	sub := &captureSubscriber{events: make(chan events.Event, 1)}
	cfg := DefaultConfig()
	cfg.StaticDir = ""
	s := New(cfg, logging.NewNopLogger(), WithSubscriber(sub))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	s.Broadcaster().Broadcast(timing.Event{Measure: 5, Beat: 2, FractionalPosition: 1})

	select {
	case e := <-sub.events:
		assert.Equal(t, events.Metronome, e.Type)
		assert.Equal(t, timing.Payload{Measure: 5, Beat: 2, Frac: 1}, e.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not receive the event")
	}

	cancel()
	<-done
	assert.True(t, sub.closed.Load(), "subscriber not closed on shutdown")
}

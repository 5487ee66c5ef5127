package progress

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopscrape/internal/scraper"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestTCPFeed(t *testing.T) {
	hub := NewHub()
	srv := NewServer("127.0.0.1:0", hub, quietLogger())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	rd := bufio.NewReader(conn)

	welcome, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, welcome, `"transport":"tcp"`)
	waitFor(t, func() bool { return hub.Stats().TCPClients == 1 })

	hub.Publish(scraper.Event{Type: scraper.EventPage, RunID: "r1", Source: "Shirts", Page: 2})

	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	var ev scraper.Event
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, scraper.EventPage, ev.Type)
	assert.Equal(t, "Shirts", ev.Source)
	assert.Equal(t, 2, ev.Page)

	last, ok := hub.Last()
	require.True(t, ok)
	assert.Equal(t, "r1", last.RunID)

	conn.Close()
	waitFor(t, func() bool { return hub.Stats().TCPClients == 0 })
}

func TestWebsocketFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", WSHandler(hub, quietLogger()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"transport":"websocket"`)
	waitFor(t, func() bool { return hub.Stats().WSClients == 1 })

	hub.Publish(scraper.Event{Type: scraper.EventRunFinished, Count: 3})
	_, msg, err = ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"run.finished"`)
	assert.Contains(t, string(msg), `"count":3`)
}

func TestLastBeforeAnyEvent(t *testing.T) {
	_, ok := NewHub().Last()
	assert.False(t, ok)
}

func TestPublishDoesNotWaitForStalledSubscriber(t *testing.T) {
	hub := NewHub()
	server, stalled := net.Pipe()
	defer stalled.Close()
	hub.Add(server)
	require.Equal(t, 1, hub.Stats().TCPClients)

	start := time.Now()
	for i := 0; i < sendBuffer*2; i++ {
		hub.Publish(scraper.Event{Type: scraper.EventPage, RunID: "r1", Page: i + 1})
	}
	assert.Less(t, time.Since(start), writeTimeout/2, "publishing never blocks on the network")

	assert.Equal(t, 0, hub.Stats().TCPClients, "subscriber with a full queue is dropped")
	last, ok := hub.Last()
	require.True(t, ok)
	assert.Equal(t, sendBuffer*2, last.Page)
}

type flakyListener struct {
	net.Listener
	failures int
	accepts  int
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.accepts++
	if l.accepts <= l.failures {
		return nil, errors.New("too many open files")
	}
	return nil, net.ErrClosed
}

func (l *flakyListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

func TestServeBacksOffOnAcceptErrors(t *testing.T) {
	ln := &flakyListener{failures: 3}
	srv := NewServer("", NewHub(), quietLogger())

	start := time.Now()
	require.NoError(t, srv.Serve(ln))
	assert.Equal(t, 4, ln.accepts)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond, "5ms, 10ms and 20ms pauses")
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Millisecond, nextBackoff(0))
	assert.Equal(t, 10*time.Millisecond, nextBackoff(5*time.Millisecond))
	assert.Equal(t, time.Second, nextBackoff(800*time.Millisecond))
}

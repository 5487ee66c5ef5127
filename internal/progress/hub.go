package progress

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shopscrape/internal/scraper"
)

const (
	writeTimeout = 2 * time.Second
	sendBuffer   = 64
)

// Hub fans scrape progress events out to TCP and websocket subscribers as
// newline-delimited JSON. Each subscriber has its own queue and writer, so
// publishing never waits on the network. A subscriber whose queue fills up
// is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[any]*client
	last    *scraper.Event
}

type client struct {
	ws    bool
	send  chan []byte
	close func() error
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[any]*client)}
}

// Add subscribes a TCP connection and queues its welcome line.
func (h *Hub) Add(conn net.Conn) {
	h.attach(conn, false, func(b []byte) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, err := conn.Write(b)
		return err
	}, conn.Close)
	h.enqueue(conn, h.welcome("tcp"))
}

func (h *Hub) Remove(conn net.Conn) {
	h.detach(conn)
	_ = conn.Close()
}

// AddWS subscribes a websocket and queues its welcome message.
func (h *Hub) AddWS(ws *websocket.Conn) {
	h.attach(ws, true, func(b []byte) error {
		_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		return ws.WriteMessage(websocket.TextMessage, b)
	}, ws.Close)
	h.enqueue(ws, h.welcome("websocket"))
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.detach(ws)
	_ = ws.Close()
}

func (h *Hub) attach(key any, ws bool, write func([]byte) error, closeFn func() error) {
	c := &client{ws: ws, send: make(chan []byte, sendBuffer), close: closeFn}
	h.mu.Lock()
	h.clients[key] = c
	h.mu.Unlock()

	go func() {
		for b := range c.send {
			if err := write(b); err != nil {
				h.detach(key)
			}
		}
	}()
}

// detach unsubscribes key and closes its connection. It is a no-op for a
// key that is already gone.
func (h *Hub) detach(key any) {
	h.mu.Lock()
	c, ok := h.clients[key]
	if ok {
		delete(h.clients, key)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		_ = c.close()
	}
}

func (h *Hub) enqueue(key any, b []byte) {
	h.mu.Lock()
	c, ok := h.clients[key]
	full := false
	if ok {
		select {
		case c.send <- b:
		default:
			full = true
		}
	}
	h.mu.Unlock()
	if full {
		h.detach(key)
	}
}

// Publish is a scraper observer.
func (h *Hub) Publish(ev scraper.Event) {
	h.mu.Lock()
	h.last = &ev
	h.mu.Unlock()
	h.BroadcastJSON(ev)
}

// Last returns the most recent event, if any run has reported yet.
func (h *Hub) Last() (scraper.Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return scraper.Event{}, false
	}
	return *h.last, true
}

// BroadcastJSON queues v for every subscriber without blocking.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	b = append(b, '\n')

	var dropped []*client
	h.mu.Lock()
	for key, c := range h.clients {
		select {
		case c.send <- b:
		default:
			delete(h.clients, key)
			close(c.send)
			dropped = append(dropped, c)
		}
	}
	h.mu.Unlock()

	for _, c := range dropped {
		_ = c.close()
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	var s Stats
	for _, c := range h.clients {
		if c.ws {
			s.WSClients++
		} else {
			s.TCPClients++
		}
	}
	return s
}

func (h *Hub) welcome(transport string) []byte {
	s := h.Stats()
	return []byte(fmt.Sprintf("{\"type\":\"welcome\",\"transport\":%q,\"clients\":%d}\n", transport, s.TCPClients+s.WSClients))
}

// Package websocket fans dashboard events out to connected browsers.
package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

// Event is the envelope pushed to clients.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type outbound struct {
	topic   string
	payload []byte
}

// Hub tracks clients and delivers events to those subscribed to them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	quit       chan struct{}
	closeOnce  sync.Once

	mu      sync.RWMutex
	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 64),
		quit:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run processes registrations and broadcasts until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for c := range h.clients {
				close(c.Send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			log.Printf("[ws] client %s connected (%d total)", c.ID, h.ClientCount())

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(msg.topic) {
					continue
				}
				select {
				case c.Send <- msg.payload:
				default:
					// Slow consumer; drop it rather than stall the hub.
					delete(h.clients, c)
					close(c.Send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// RegisterClient adds c to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.quit:
		close(c.Send)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues an event for every client subscribed to it.
func (h *Hub) Broadcast(event string, data interface{}) {
	payload, err := json.Marshal(Event{Type: event, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		log.Printf("[ws] encoding %s: %v", event, err)
		return
	}
	select {
	case h.broadcast <- outbound{topic: event, payload: payload}:
	case <-h.quit:
	}
}

// Client is one websocket connection. An empty Subscriptions set receives
// every event.
type Client struct {
	ID            string
	Hub           *Hub
	Conn          *ws.Conn
	Send          chan []byte
	Subscriptions map[string]bool

	subMu sync.RWMutex
}

func (c *Client) wants(topic string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.Subscriptions) == 0 || c.Subscriptions[topic]
}

type clientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// ReadPump handles subscribe/unsubscribe requests and keeps the connection
// alive until the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.quit:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessage)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseAbnormalClosure) {
				log.Printf("[ws] client %s: %v", c.ID, err)
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.subMu.Lock()
		switch msg.Action {
		case "subscribe":
			for _, t := range msg.Topics {
				c.Subscriptions[t] = true
			}
		case "unsubscribe":
			for _, t := range msg.Topics {
				delete(c.Subscriptions, t)
			}
		}
		c.subMu.Unlock()
	}
}

// WritePump writes queued events and pings until Send is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(ws.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(ws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades requests to websocket clients of h.
func Handler(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[ws] upgrade error: %v", err)
			return
		}
		client := &Client{
			ID:            fmt.Sprintf("client-%d", time.Now().UnixNano()),
			Hub:           h,
			Conn:          conn,
			Send:          make(chan []byte, 256),
			Subscriptions: make(map[string]bool),
		}
		h.RegisterClient(client)
		go client.WritePump()
		go client.ReadPump()
	}
}

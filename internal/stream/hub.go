// Package stream broadcasts trade prints and depth snapshots to
// websocket subscribers. Single instrument, so there are no topics:
// every client receives every message.
package stream

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nathanyu/lob-engine/internal/domain"
	"github.com/nathanyu/lob-engine/internal/marketdata"
)

const (
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMessageSize      = 4 * 1024
	defaultSendBuf      = 256
	defaultPublishBuf   = 4096
	maxConsecutiveDrops = 50
)

type message struct {
	Type  string                `json:"type"` // "trade" | "depth"
	Trade *marketdata.Print     `json:"trade,omitempty"`
	Depth *domain.DepthSnapshot `json:"depth,omitempty"`
}

// Hub manages clients and fans published messages out to them.
type Hub struct {
	register   chan *client
	unregister chan *client
	publish    chan []byte

	clients map[*client]struct{}

	publishDrops uint64
	clientCount  atomic.Int64
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// consecutive send drops; slow clients get evicted
	drops int
}

// NewHub creates an empty hub. Run must be called before publishing.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		publish:    make(chan []byte, defaultPublishBuf),
		clients:    make(map[*client]struct{}),
	}
}

// Run runs the hub event loop until ctx is cancelled.
// Call as: go hub.Run(ctx).
func (h *Hub) Run(ctx context.Context) {
	log.Println("[stream] hub started")
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.clientCount.Store(int64(len(h.clients)))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.clientCount.Store(int64(len(h.clients)))

		case data := <-h.publish:
			for c := range h.clients {
				select {
				case c.send <- data:
					c.drops = 0
				default:
					atomic.AddUint64(&h.publishDrops, 1)
					c.drops++
					if c.drops > maxConsecutiveDrops {
						log.Printf("[stream] evicting slow client after %d drops", c.drops)
						delete(h.clients, c)
						close(c.send)
						_ = c.conn.Close()
					}
				}
			}
			h.clientCount.Store(int64(len(h.clients)))

		case <-ctx.Done():
			log.Println("[stream] hub shutting down")
			for c := range h.clients {
				close(c.send)
				_ = c.conn.Close()
				delete(h.clients, c)
			}
			h.clientCount.Store(0)
			return
		}
	}
}

// PublishTrade broadcasts a trade print. Non-blocking: if the publish
// buffer is full the message is dropped and counted.
func (h *Hub) PublishTrade(pr marketdata.Print) {
	h.send(message{Type: "trade", Trade: &pr})
}

// PublishDepth broadcasts a depth snapshot.
func (h *Hub) PublishDepth(snap domain.DepthSnapshot) {
	h.send(message{Type: "depth", Depth: &snap})
}

func (h *Hub) send(msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[stream] marshal: %v", err)
		return
	}
	select {
	case h.publish <- data:
	default:
		atomic.AddUint64(&h.publishDrops, 1)
	}
}

// Stats returns the client count and cumulative publish drops.
func (h *Hub) Stats() (clients int64, drops uint64) {
	return h.clientCount.Load(), atomic.LoadUint64(&h.publishDrops)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The surface is a read-only diagnostic feed; any origin may attach.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers a client.
func ServeWS(h *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, defaultSendBuf),
	}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

// readPump drains control frames; clients send nothing meaningful.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			) {
				log.Printf("[stream] read error: %v", err)
			}
			return
		}
	}
}

// writePump serializes all writes to the websocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

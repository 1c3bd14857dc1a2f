package api

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 1 << 20
)

// Event is one frame of the /events feed.
type Event struct {
	Type    string `json:"type"` // "change" or "notice"
	Key     string `json:"key,omitempty"`
	Old     any    `json:"old,omitempty"`
	New     any    `json:"new,omitempty"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"`
}

// Hub fans events out to every connected websocket and answers the
// messages clients send over it.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	direct     chan reply
	done       chan struct{}

	handle func(ctx context.Context, msg []byte) ([]byte, error)
	up     websocket.Upgrader
	log    *zap.Logger
}

type reply struct {
	to  *wsClient
	msg []byte
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns a hub; handle answers inbound frames and may return nil.
func NewHub(handle func(ctx context.Context, msg []byte) ([]byte, error), log *zap.Logger) *Hub {
	return &Hub{
		clients:    map[*wsClient]bool{},
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		direct:     make(chan reply, 16),
		done:       make(chan struct{}),
		handle:     handle,
		up: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Run serves the hub until ctx ends, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				h.deliver(c, msg)
			}
		case r := <-h.direct:
			if h.clients[r.to] {
				h.deliver(r.to, r.msg)
			}
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		}
	}
}

// deliver drops a client whose queue is full.
func (h *Hub) deliver(c *wsClient, msg []byte) {
	select {
	case c.send <- msg:
	default:
		close(c.send)
		delete(h.clients, c)
	}
}

// Broadcast queues ev for every client. It never blocks; a full queue drops
// the event.
func (h *Hub) Broadcast(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- b:
	default:
		h.log.Warn("event dropped", zap.String("type", ev.Type), zap.String("key", ev.Key))
	}
}

// Serve upgrades the request and attaches the connection to the hub.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	cl := &wsClient{hub: h, conn: conn, send: make(chan []byte, 256)}
	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go cl.writePump()
	go cl.readPump()
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read", zap.Error(err))
			}
			return
		}
		if c.hub.handle == nil {
			continue
		}
		resp, err := c.hub.handle(context.Background(), bytes.TrimSpace(msg))
		if err != nil {
			resp, _ = json.Marshal(gin.H{"error": err.Error()})
		}
		if len(resp) == 0 {
			continue
		}
		select {
		case c.hub.direct <- reply{to: c, msg: resp}:
		case <-c.hub.done:
			return
		}
	}
}

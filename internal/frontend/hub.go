// Copyright 2025 James Ross
package frontend

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/joltworks/go-brew-queue/internal/obs"
	"github.com/joltworks/go-brew-queue/internal/queue"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsPayload is the frame shape for WS /newOrder (spec §6): the live queue
// plus its counters, re-sent in full on every broadcast.
type wsPayload struct {
	Orders      []json.RawMessage `json:"orders"`
	TotalOrders int               `json:"totalOrders"`
	TotalDrinks int               `json:"totalDrinks"`
}

// Hub holds every connected UI client and implements queue.Broadcaster.
// Connections are appended to a shared slice under a mutex; broadcast
// iterates and sends, dropping and removing any client whose send fails
// (spec §5 "Shared resources", §7 kind (e)).
type Hub struct {
	mu    sync.Mutex
	conns []*websocket.Conn
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{log: log}
}

// ServeWS upgrades the request and registers the connection. The protocol
// is push-only: the hub reads and discards whatever the client sends, which
// also keeps control frames flowing, until the connection drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", obs.Err(err))
		return
	}

	h.mu.Lock()
	h.conns = append(h.conns, conn)
	h.mu.Unlock()

	go h.drain(conn)
}

// drain reads and discards frames until the client disconnects, then
// removes it from the connection list.
func (h *Hub) drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.remove(conn)
			conn.Close()
			return
		}
	}
}

func (h *Hub) remove(target *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.conns {
		if c == target {
			h.conns = append(h.conns[:i], h.conns[i+1:]...)
			return
		}
	}
}

// Broadcast pushes snap to every connected client (spec §4.1 "a single
// post-mutation broadcast to observers").
func (h *Hub) Broadcast(snap queue.Snapshot) {
	items := make([]json.RawMessage, 0, len(snap.Orders))
	for _, it := range snap.Orders {
		b, err := it.MarshalJSON()
		if err != nil {
			h.log.Error("marshal item for broadcast failed", obs.Err(err))
			continue
		}
		items = append(items, b)
	}
	payload, err := json.Marshal(wsPayload{Orders: items, TotalOrders: snap.TotalOrders, TotalDrinks: snap.TotalDrinks})
	if err != nil {
		h.log.Error("marshal broadcast payload failed", obs.Err(err))
		return
	}

	h.mu.Lock()
	conns := append([]*websocket.Conn(nil), h.conns...)
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("websocket send failed, dropping client", obs.Err(err))
			h.remove(c)
			c.Close()
		}
	}
}

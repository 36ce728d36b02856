// Package api is the HTTP/WebSocket surface of the terrain-service demo,
// grounded on the teacher's cmd/game-server/api and cmd/game-server/websocket
// packages (chi handlers, a register/unregister hub loop, ping-driven
// WritePump, json ServerMessage envelopes).
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// VersionBumpMessage is pushed to subscribers of a world whenever that
// world's terrainVersion changes (stand-in for the real transport
// collaborator named in the embedder contract).
type VersionBumpMessage struct {
	Type           string    `json:"type"`
	WorldID        uuid.UUID `json:"worldId"`
	TerrainVersion int64     `json:"terrainVersion"`
}

// notifierClient is one subscribed WebSocket connection, scoped to a single
// world.
type notifierClient struct {
	worldID uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
}

// Notifier is a register/unregister hub that fans out version-bump events
// to the WebSocket clients subscribed to the affected world.
type Notifier struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*notifierClient]struct{}

	register   chan *notifierClient
	unregister chan *notifierClient
}

// NewNotifier creates an empty hub. Call Run in a goroutine before serving
// WebSocket upgrades.
func NewNotifier() *Notifier {
	return &Notifier{
		clients:    make(map[uuid.UUID]map[*notifierClient]struct{}),
		register:   make(chan *notifierClient),
		unregister: make(chan *notifierClient),
	}
}

// Run drives the hub's register/unregister loop until done is closed.
func (n *Notifier) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case c := <-n.register:
			n.mu.Lock()
			if n.clients[c.worldID] == nil {
				n.clients[c.worldID] = make(map[*notifierClient]struct{})
			}
			n.clients[c.worldID][c] = struct{}{}
			n.mu.Unlock()
		case c := <-n.unregister:
			n.mu.Lock()
			if set, ok := n.clients[c.worldID]; ok {
				if _, ok := set[c]; ok {
					delete(set, c)
					close(c.send)
				}
			}
			n.mu.Unlock()
		}
	}
}

// PublishVersionBumped implements worldregistry.Publisher by fanning the
// event out to every client subscribed to worldID.
func (n *Notifier) PublishVersionBumped(_ context.Context, worldID uuid.UUID, version int64) error {
	msg := VersionBumpMessage{Type: "terrain.version.bumped", WorldID: worldID, TerrainVersion: version}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	n.mu.RLock()
	clients := make([]*notifierClient, 0, len(n.clients[worldID]))
	for c := range n.clients[worldID] {
		clients = append(clients, c)
	}
	n.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			log.Printf("terrain-service: dropping version-bump notification, client send buffer full (world %s)", worldID)
		}
	}
	return nil
}

// ServeWS upgrades the request to a WebSocket and subscribes it to
// worldID's version-bump notifications until the connection closes.
func (n *Notifier) ServeWS(w http.ResponseWriter, r *http.Request, worldID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("terrain-service: websocket upgrade failed: %v", err)
		return
	}

	c := &notifierClient{worldID: worldID, conn: conn, send: make(chan []byte, 16)}
	n.register <- c

	go c.writePump()
	c.readPump(n)
}

// readPump discards client input (this hub is push-only) but keeps the
// connection's read deadline alive so pong frames are processed.
func (c *notifierClient) readPump(n *Notifier) {
	defer func() {
		n.unregister <- c
		c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *notifierClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

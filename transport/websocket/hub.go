package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wolfattack1993/polytrack-race/game/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Hub maintains one client per live session and fans outbound events
// into their send queues. It implements service.EventSink.
type Hub struct {
	service service.GameService

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a hub bound to the given service
func NewHub(svc service.GameService) *Hub {
	return &Hub{
		service: svc,
		clients: make(map[string]*Client),
	}
}

// ServeWS handles a WebSocket upgrade request. It assigns the session
// id, registers the client, runs the service connect step, delivers the
// init snapshot, and starts the connection pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	sessionID := uuid.NewString()
	client := newClient(h, conn, sessionID)

	// Register before Connect so the fanout of concurrent sessions'
	// updates reaches this client from the same instant its snapshot
	// is taken.
	h.addClient(client)

	snapshot, err := h.service.Connect(r.Context(), sessionID)
	if err != nil {
		log.Printf("Connect rejected for session %s: %v", sessionID, err)
		h.removeClient(client)
		conn.Close()
		return
	}

	client.enqueueEvent(service.EventInit, snapshot)

	go client.writePump()
	go client.readPump()
}

// SendTo delivers an event to one session only
func (h *Hub) SendTo(sessionID, event string, data any) {
	payload, err := Encode(event, data)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if ok {
		client.enqueue(payload)
	}
}

// BroadcastExcept delivers an event to every session but one
func (h *Hub) BroadcastExcept(sessionID, event string, data any) {
	payload, err := Encode(event, data)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, client := range h.clients {
		if id == sessionID {
			continue
		}
		client.enqueue(payload)
	}
}

// BroadcastAll delivers an event to every session
func (h *Hub) BroadcastAll(event string, data any) {
	payload, err := Encode(event, data)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.enqueue(payload)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every client connection. Each closing connection
// drives its own service disconnect through the read pump.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

// addClient registers a client under its session id
func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c.sessionID] = c
	h.mu.Unlock()
}

// removeClient unregisters a client and closes its send queue exactly
// once; later calls for the same client are no-ops.
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if current, ok := h.clients[c.sessionID]; ok && current == c {
		delete(h.clients, c.sessionID)
	}
	h.mu.Unlock()

	c.closeSend()
}

package websocket

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wolfattack1993/polytrack-race/game/service"
	"github.com/wolfattack1993/polytrack-race/validate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outbound queue depth per client. A client that falls this far
	// behind the fanout is disconnected.
	sendQueueSize = 256
)

// Client represents one WebSocket connection and its session
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	send      chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		sessionID: sessionID,
		send:      make(chan []byte, sendQueueSize),
	}
}

// enqueue places an encoded frame on the client's send queue. A full
// queue marks the client as a slow consumer: its connection is closed
// and the read pump performs the usual cleanup.
func (c *Client) enqueue(payload []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- payload:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		log.Printf("Session %s cannot keep up, dropping connection", c.sessionID)
		c.conn.Close()
	}
}

// enqueueEvent encodes and enqueues one outbound event for this client
func (c *Client) enqueueEvent(event string, data any) {
	payload, err := Encode(event, data)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", event, err)
		return
	}
	c.enqueue(payload)
}

// closeSend closes the send queue exactly once
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump pumps messages from the WebSocket connection into the
// service. It runs once per connection; its defer is the single
// cleanup path, so disconnect handling happens exactly once no matter
// how the connection ends.
func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
		c.hub.service.Disconnect(context.Background(), c.sessionID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for session %s: %v", c.sessionID, err)
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch routes one inbound frame to the matching service operation.
// Malformed or invalid frames are logged and dropped; nothing a client
// sends can take the server down.
func (c *Client) dispatch(raw []byte) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		log.Printf("Dropping frame from session %s: %v", c.sessionID, err)
		return
	}

	ctx := context.Background()

	switch env.Event {
	case EventLogin:
		payload, err := DecodePayload[LoginPayload](env)
		if err != nil {
			log.Printf("Dropping login from session %s: %v", c.sessionID, err)
			return
		}
		if err := validate.Username(payload.Username); err != nil {
			log.Printf("Dropping login from session %s: %v", c.sessionID, err)
			return
		}
		c.hub.service.Login(ctx, c.sessionID, payload.Username)

	case EventPlayerMove:
		payload, err := DecodePayload[MovePayload](env)
		if err != nil {
			log.Printf("Dropping move from session %s: %v", c.sessionID, err)
			return
		}
		if err := validate.Vec3(payload.Position); err != nil {
			log.Printf("Dropping move from session %s: position %v", c.sessionID, err)
			return
		}
		if err := validate.Vec3(payload.Rotation); err != nil {
			log.Printf("Dropping move from session %s: rotation %v", c.sessionID, err)
			return
		}
		c.hub.service.Move(ctx, c.sessionID, payload.Position, payload.Rotation)

	case EventAdminAttempt:
		payload, err := DecodePayload[AdminAttemptPayload](env)
		if err != nil {
			log.Printf("Dropping admin attempt from session %s: %v", c.sessionID, err)
			return
		}
		c.hub.service.AttemptAdmin(ctx, c.sessionID, payload.Code)

	case EventAdminBroadcast:
		payload, err := DecodePayload[AdminBroadcastPayload](env)
		if err != nil {
			log.Printf("Dropping broadcast from session %s: %v", c.sessionID, err)
			return
		}
		if err := validate.BroadcastMessage(payload.Message); err != nil {
			log.Printf("Dropping broadcast from session %s: %v", c.sessionID, err)
			return
		}
		if err := c.hub.service.Broadcast(ctx, c.sessionID, payload.Message); err != nil {
			if errors.Is(err, service.ErrNotPrivileged) {
				log.Printf("Unprivileged broadcast attempt from session %s rejected", c.sessionID)
			} else {
				log.Printf("Broadcast from session %s failed: %v", c.sessionID, err)
			}
		}

	default:
		log.Printf("Unknown event %q from session %s", env.Event, c.sessionID)
	}
}

// writePump pumps frames from the send queue to the WebSocket
// connection and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

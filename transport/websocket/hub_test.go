package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wolfattack1993/polytrack-race/game/service"
	"github.com/wolfattack1993/polytrack-race/game/session"
	"github.com/wolfattack1993/polytrack-race/game/world"
)

// testServer bundles the wired stack behind an httptest server
type testServer struct {
	hub      *Hub
	registry *session.Manager
	server   *httptest.Server
}

func newWSTestServer(t *testing.T, adminCode string) *testServer {
	t.Helper()

	registry := session.NewManager()
	svc := service.NewGameService(registry, world.NewSpawner(2.0), adminCode)
	hub := NewHub(svc)
	svc.SetSink(hub)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	}))
	t.Cleanup(server.Close)

	return &testServer{hub: hub, registry: registry, server: server}
}

func (ts *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvent reads frames until one matches the wanted event name,
// failing the test if it does not arrive in time.
func readEvent(t *testing.T, conn *websocket.Conn, event string) Envelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Failed waiting for %s: %v", event, err)
		}
		env, err := DecodeEnvelope(raw)
		if err != nil {
			t.Fatalf("Malformed frame while waiting for %s: %v", event, err)
		}
		if env.Event == event {
			return env
		}
	}
}

// readNext reads exactly one frame. Unlike readEvent it does not skip
// frames, so it asserts ordering as well as delivery.
func readNext(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("Malformed frame: %v", err)
	}
	return env
}

// expectSilence asserts that no frame with the given event name arrives
// within the window. The read deadline it trips is permanent for the
// connection, so only call this when the connection is done reading.
func expectSilence(t *testing.T, conn *websocket.Conn, event string, window time.Duration) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(window))
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Timeout is the expected outcome.
			return
		}
		env, decodeErr := DecodeEnvelope(raw)
		if decodeErr == nil && env.Event == event {
			t.Fatalf("Received unexpected %s: %s", event, env.Data)
		}
	}
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	payload, err := Encode(event, data)
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", event, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// waitForCondition polls until the condition holds or the deadline
// passes. Used to synchronize with server-side processing that has no
// client-visible acknowledgement.
func waitForCondition(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestInitSnapshot(t *testing.T) {
	ts := newWSTestServer(t, "")
	conn := ts.dial(t)

	env := readEvent(t, conn, service.EventInit)

	var snapshot service.InitSnapshot
	if err := json.Unmarshal(env.Data, &snapshot); err != nil {
		t.Fatalf("Failed to decode init payload: %v", err)
	}
	if snapshot.ID == "" {
		t.Error("Init snapshot missing session id")
	}
	if len(snapshot.Players) != 1 {
		t.Fatalf("Expected 1 player in snapshot, got %d", len(snapshot.Players))
	}
	self, ok := snapshot.Players[snapshot.ID]
	if !ok {
		t.Fatal("Snapshot does not contain the session's own record")
	}
	if self.Username != world.DefaultUsername {
		t.Errorf("Expected placeholder username, got %q", self.Username)
	}
	if self.Position.X < -2 || self.Position.X > 2 || self.Position.Z < -2 || self.Position.Z > 2 {
		t.Errorf("Spawn outside bounded region: %+v", self.Position)
	}
}

// TestLoginVisibleToLaterJoiner: first client logs in as Ada, second
// client's init snapshot carries that name.
func TestLoginVisibleToLaterJoiner(t *testing.T) {
	ts := newWSTestServer(t, "")

	conn1 := ts.dial(t)
	init1 := readEvent(t, conn1, service.EventInit)
	var snap1 service.InitSnapshot
	if err := json.Unmarshal(init1.Data, &snap1); err != nil {
		t.Fatalf("Failed to decode init payload: %v", err)
	}

	sendEvent(t, conn1, EventLogin, LoginPayload{Username: "Ada"})
	waitForCondition(t, "login to apply", func() bool {
		player, err := ts.registry.Get(snap1.ID)
		return err == nil && player.Username == "Ada"
	})

	conn2 := ts.dial(t)
	init2 := readEvent(t, conn2, service.EventInit)
	var snap2 service.InitSnapshot
	if err := json.Unmarshal(init2.Data, &snap2); err != nil {
		t.Fatalf("Failed to decode init payload: %v", err)
	}
	if len(snap2.Players) != 2 {
		t.Fatalf("Expected 2 players in second snapshot, got %d", len(snap2.Players))
	}
	if snap2.Players[snap1.ID].Username != "Ada" {
		t.Errorf("Expected first client as 'Ada', got %q", snap2.Players[snap1.ID].Username)
	}

	// The first client is told about the joiner, by id, anonymous.
	joined := readEvent(t, conn1, service.EventPlayerJoined)
	var view world.PlayerView
	if err := json.Unmarshal(joined.Data, &view); err != nil {
		t.Fatalf("Failed to decode playerJoined payload: %v", err)
	}
	if view.ID != snap2.ID {
		t.Errorf("playerJoined carries id %q, want %q", view.ID, snap2.ID)
	}
}

func TestMoveRelay(t *testing.T) {
	ts := newWSTestServer(t, "")

	conn1 := ts.dial(t)
	init1 := readEvent(t, conn1, service.EventInit)
	var snap1 service.InitSnapshot
	if err := json.Unmarshal(init1.Data, &snap1); err != nil {
		t.Fatalf("Failed to decode init payload: %v", err)
	}

	conn2 := ts.dial(t)
	readEvent(t, conn2, service.EventInit)
	readEvent(t, conn1, service.EventPlayerJoined)

	move := MovePayload{
		Position: world.Vec3{X: 1, Y: 0, Z: 2},
		Rotation: world.Vec3{},
	}
	sendEvent(t, conn1, EventPlayerMove, move)

	// The other client receives the exact update with the sender's id.
	update := readEvent(t, conn2, service.EventPlayerUpdate)
	var view world.PlayerView
	if err := json.Unmarshal(update.Data, &view); err != nil {
		t.Fatalf("Failed to decode playerUpdate payload: %v", err)
	}
	if view.ID != snap1.ID {
		t.Errorf("playerUpdate id %q, want %q", view.ID, snap1.ID)
	}
	if view.Position != move.Position || view.Rotation != move.Rotation {
		t.Errorf("playerUpdate carries %+v, want %+v", view.Position, move.Position)
	}

	// The sender never hears its own update.
	expectSilence(t, conn1, service.EventPlayerUpdate, 150*time.Millisecond)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	ts := newWSTestServer(t, "")

	conn := ts.dial(t)
	readEvent(t, conn, service.EventInit)

	frames := [][]byte{
		[]byte("not json"),
		[]byte(`{}`),
		[]byte(`{"event":"playerMove","data":{"position":{"x":"NaN"}}}`),
		[]byte(`{"event":"login","data":{}}`),
		[]byte(`{"event":"totally-unknown","data":{}}`),
	}
	for _, frame := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			t.Fatalf("Failed to send frame: %v", err)
		}
	}

	// The connection survives and keeps working.
	sendEvent(t, conn, EventLogin, LoginPayload{Username: "Ada"})
	waitForCondition(t, "connection still serving events", func() bool {
		for _, id := range ts.registry.IDs() {
			if player, err := ts.registry.Get(id); err == nil && player.Username == "Ada" {
				return true
			}
		}
		return false
	})
}

func TestAdminGateOverWire(t *testing.T) {
	ts := newWSTestServer(t, "hunter2")

	conn1 := ts.dial(t)
	readEvent(t, conn1, service.EventInit)
	conn2 := ts.dial(t)
	readEvent(t, conn2, service.EventInit)
	readEvent(t, conn1, service.EventPlayerJoined)

	// Wrong code: denied. The follow-up broadcast attempt must deliver
	// nothing; with per-sender ordering, the later granted broadcast
	// arriving as the very next frame proves the rejected one never
	// went out.
	sendEvent(t, conn1, EventAdminAttempt, AdminAttemptPayload{Code: "wrong"})
	if env := readNext(t, conn1); env.Event != service.EventAdminDenied {
		t.Fatalf("Expected adminAccessDenied, got %s", env.Event)
	}

	sendEvent(t, conn1, EventAdminBroadcast, AdminBroadcastPayload{Message: "hi"})

	// Correct code: granted, and the broadcast reaches everyone
	// including the sender.
	sendEvent(t, conn1, EventAdminAttempt, AdminAttemptPayload{Code: "hunter2"})
	if env := readNext(t, conn1); env.Event != service.EventAdminGranted {
		t.Fatalf("Expected adminAccessGranted next, got %s", env.Event)
	}

	sendEvent(t, conn1, EventAdminBroadcast, AdminBroadcastPayload{Message: "race starts in 5"})

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		env := readNext(t, conn)
		if env.Event != service.EventBroadcastMsg {
			t.Fatalf("Expected broadcastMessage next, got %s", env.Event)
		}
		var notice service.BroadcastNotice
		if err := json.Unmarshal(env.Data, &notice); err != nil {
			t.Fatalf("Failed to decode broadcast payload: %v", err)
		}
		if notice.Message != "race starts in 5" {
			t.Errorf("Broadcast message %q, want 'race starts in 5'", notice.Message)
		}
	}
}

func TestDisconnectAnnounced(t *testing.T) {
	ts := newWSTestServer(t, "")

	conn1 := ts.dial(t)
	readEvent(t, conn1, service.EventInit)

	conn2 := ts.dial(t)
	init2 := readEvent(t, conn2, service.EventInit)
	var snap2 service.InitSnapshot
	if err := json.Unmarshal(init2.Data, &snap2); err != nil {
		t.Fatalf("Failed to decode init payload: %v", err)
	}
	readEvent(t, conn1, service.EventPlayerJoined)

	conn2.Close()

	left := readEvent(t, conn1, service.EventPlayerLeft)
	var notice service.LeftNotice
	if err := json.Unmarshal(left.Data, &notice); err != nil {
		t.Fatalf("Failed to decode playerLeft payload: %v", err)
	}
	if notice.ID != snap2.ID {
		t.Errorf("playerLeft id %q, want %q", notice.ID, snap2.ID)
	}

	waitForCondition(t, "registry cleanup", func() bool {
		return ts.registry.Count() == 1 && ts.hub.ClientCount() == 1
	})
}

func TestEnvelopeCodec(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		raw, err := Encode(EventLogin, LoginPayload{Username: "Ada"})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		env, err := DecodeEnvelope(raw)
		if err != nil {
			t.Fatalf("DecodeEnvelope failed: %v", err)
		}
		payload, err := DecodePayload[LoginPayload](env)
		if err != nil {
			t.Fatalf("DecodePayload failed: %v", err)
		}
		if payload.Username != "Ada" {
			t.Errorf("Expected username 'Ada', got %q", payload.Username)
		}
	})

	t.Run("missing event name", func(t *testing.T) {
		if _, err := Encode("", nil); err == nil {
			t.Error("Expected error for empty event name")
		}
		if _, err := DecodeEnvelope([]byte(`{"data":{}}`)); err == nil {
			t.Error("Expected error for envelope without event")
		}
	})

	t.Run("empty frame", func(t *testing.T) {
		if _, err := DecodeEnvelope(nil); err == nil {
			t.Error("Expected error for empty frame")
		}
	})

	t.Run("nil data omitted", func(t *testing.T) {
		raw, err := Encode(service.EventAdminGranted, nil)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		env, err := DecodeEnvelope(raw)
		if err != nil {
			t.Fatalf("DecodeEnvelope failed: %v", err)
		}
		if len(env.Data) != 0 {
			t.Errorf("Expected no payload, got %s", env.Data)
		}
	})
}

package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/wolfattack1993/polytrack-race/game/world"
)

// Inbound event names accepted from clients.
const (
	EventLogin          = "login"
	EventPlayerMove     = "playerMove"
	EventAdminAttempt   = "adminCodeAttempt"
	EventAdminBroadcast = "adminBroadcast"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// LoginPayload carries the login event
type LoginPayload struct {
	Username string `json:"username"`
}

// MovePayload carries the playerMove event
type MovePayload struct {
	Position world.Vec3 `json:"position"`
	Rotation world.Vec3 `json:"rotation"`
}

// AdminAttemptPayload carries the adminCodeAttempt event
type AdminAttemptPayload struct {
	Code string `json:"code"`
}

// AdminBroadcastPayload carries the adminBroadcast event
type AdminBroadcastPayload struct {
	Message string `json:"message"`
}

// Encode marshals an outbound envelope
func Encode(event string, data any) ([]byte, error) {
	if event == "" {
		return nil, fmt.Errorf("cannot encode envelope without event name")
	}
	env := Envelope{Event: event}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", event, err)
		}
		env.Data = payload
	}
	return json.Marshal(env)
}

// DecodeEnvelope unmarshals one inbound frame
func DecodeEnvelope(raw []byte) (Envelope, error) {
	if len(raw) == 0 {
		return Envelope{}, fmt.Errorf("empty message")
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("envelope missing event name")
	}
	return env, nil
}

// DecodePayload unmarshals an envelope's payload into the given type
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("empty payload for event %q", env.Event)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("malformed %s payload: %w", env.Event, err)
	}
	return out, nil
}

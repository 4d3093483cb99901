// Command simulate drives synthetic players against a running sync server.
// Each bot dials the WebSocket endpoint, logs in with a generated username,
// and wanders the arena with small random steps until the run duration
// elapses. It is useful for smoke-testing relay fan-out and for populating
// the arena during client development.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/wolfattack1993/polytrack-race/game/world"
	"github.com/wolfattack1993/polytrack-race/transport/websocket"
)

var (
	serverURL = flag.String("server", "ws://localhost:3000/ws", "WebSocket endpoint to dial")
	bots      = flag.Int("bots", 5, "Number of simulated players")
	duration  = flag.Duration("duration", 30*time.Second, "How long each bot stays connected")
	interval  = flag.Duration("interval", 100*time.Millisecond, "Delay between movement updates")
	prefix    = flag.String("prefix", "bot", "Username prefix for simulated players")
)

func main() {
	flag.Parse()

	log.Printf("Dialing %d bots at %s for %s", *bots, *serverURL, *duration)

	var wg sync.WaitGroup
	for i := 0; i < *bots; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := fmt.Sprintf("%s-%d", *prefix, n)
			if err := runBot(name); err != nil {
				log.Printf("%s: %v", name, err)
			}
		}(i)

		// Stagger dials so join notifications interleave with movement.
		time.Sleep(20 * time.Millisecond)
	}

	wg.Wait()
	log.Println("All bots finished")
}

// runBot connects one simulated player and walks it until the deadline.
func runBot(name string) error {
	conn, _, err := gws.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Drain inbound events so the server's send queue never backs up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := sendEvent(conn, websocket.EventLogin, websocket.LoginPayload{Username: name}); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	pos := world.Vec3{
		X: rand.Float64()*4 - 2,
		Z: rand.Float64()*4 - 2,
	}
	var heading float64

	deadline := time.Now().Add(*duration)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for now := range ticker.C {
		if now.After(deadline) {
			break
		}

		pos, heading = step(pos, heading)
		move := websocket.MovePayload{
			Position: pos,
			Rotation: world.Vec3{Y: heading},
		}
		if err := sendEvent(conn, websocket.EventPlayerMove, move); err != nil {
			return fmt.Errorf("move: %w", err)
		}
	}

	return conn.WriteMessage(gws.CloseMessage,
		gws.FormatCloseMessage(gws.CloseNormalClosure, ""))
}

// step advances a bot one tick: a small heading drift plus a fixed-length
// stride, loosely bounded so bots orbit the spawn area.
func step(pos world.Vec3, heading float64) (world.Vec3, float64) {
	heading += (rand.Float64() - 0.5) * 0.6

	const stride = 0.15
	next := world.Vec3{
		X: pos.X + stride*math.Cos(heading),
		Z: pos.Z + stride*math.Sin(heading),
	}

	// Turn back toward the origin when wandering too far out.
	const bound = 20.0
	if math.Abs(next.X) > bound || math.Abs(next.Z) > bound {
		heading += math.Pi
		next = pos
	}

	return next, heading
}

func sendEvent(conn *gws.Conn, event string, data any) error {
	payload, err := websocket.Encode(event, data)
	if err != nil {
		return err
	}
	return conn.WriteMessage(gws.TextMessage, payload)
}

// Package main runs a demo WebSocket client for solve events: it
// subscribes to the firehose, submits a small optimize request and
// prints events until the solve completes.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	SolveID string          `json:"solveId,omitempty"`
	Event   json.RawMessage `json:"event,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/solve-events/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(wsMessage{Type: "subscribe", SolveID: "all"}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			fmt.Printf("<< %s %s %s\n", msg.Type, msg.SolveID, string(msg.Event))
			if msg.Type == "event" && bytes.Contains(msg.Event, []byte("solve.completed")) {
				return
			}
		}
	}()

	body := []byte(`{
		"depot": {"lat": 47.6062, "lng": -122.3321},
		"stops": [
			{"id": "a", "location": {"lat": 47.61, "lng": -122.33}, "demand": 1},
			{"id": "b", "location": {"lat": 47.62, "lng": -122.34}, "demand": 1}
		],
		"vehicles": [{"id": "v1", "capacity": 5}],
		"constraints": {"timeBudgetSec": 5, "seed": 7}
	}`)
	resp, err := http.Post("http://localhost:"+port+"/v1/optimize", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	fmt.Println("optimize status:", resp.Status, "solveId:", resp.Header.Get("X-Solve-Id"))

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Println("timed out waiting for solve events")
	}
}

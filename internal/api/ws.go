package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string      `json:"type"`
	SolveID string      `json:"solveId,omitempty"`
	Event   *SolveEvent `json:"event,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SolveEventsWSHandler streams solve events over a websocket. The client
// sends subscribe/unsubscribe messages naming a solveId ("all" for the
// firehose); events arrive as {"type":"event","solveId":...,"event":...}.
func (s *Server) SolveEventsWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	var writeMu sync.Mutex
	write := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(v)
	}

	done := make(chan struct{})
	defer close(done)

	// Keepalive pings until the read loop ends.
	go func() {
		ticker := time.NewTicker(20 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				writeMu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	type sub struct {
		ch   chan SolveEvent
		stop chan struct{}
	}
	subs := map[string]sub{}
	defer func() {
		for id, sb := range subs {
			close(sb.stop)
			s.Broker.Unsubscribe(id, sb.ch)
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		switch msg.Type {
		case "subscribe":
			id := msg.SolveID
			if id == "" {
				id = ChannelAll
			}
			if _, dup := subs[id]; dup {
				continue
			}
			sb := sub{ch: s.Broker.Subscribe(id), stop: make(chan struct{})}
			subs[id] = sb
			go func(id string, sb sub) {
				for {
					select {
					case <-sb.stop:
						return
					case evt, ok := <-sb.ch:
						if !ok {
							return
						}
						e := evt
						if write(wsMessage{Type: "event", SolveID: id, Event: &e}) != nil {
							return
						}
					}
				}
			}(id, sb)
		case "unsubscribe":
			id := msg.SolveID
			if id == "" {
				id = ChannelAll
			}
			if sb, ok := subs[id]; ok {
				close(sb.stop)
				s.Broker.Unsubscribe(id, sb.ch)
				delete(subs, id)
			}
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		default:
			_ = write(wsMessage{Type: "error", Error: "unknown message type: " + msg.Type})
		}
	}
}

package api

import (
	"sync"
)

// SolveEvent is one solve lifecycle notification: accepted, progress
// snapshots while the search runs, then completed or failed.
type SolveEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Broker fans solve events out to in-process subscribers. Channel "all"
// carries every event; per-solve channels carry one solve's stream.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SolveEvent]struct{} // channel name -> set of subscribers
}

// ChannelAll receives events for every solve.
const ChannelAll = "all"

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SolveEvent]struct{}{}}
}

func (b *Broker) Subscribe(channel string) chan SolveEvent {
	ch := make(chan SolveEvent, 8)
	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = map[chan SolveEvent]struct{}{}
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(channel string, ch chan SolveEvent) {
	b.mu.Lock()
	if m := b.subs[channel]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, channel)
		}
	}
	b.mu.Unlock()
	close(ch)
}

// Publish delivers evt to the named channel and to ChannelAll. Slow
// subscribers drop events rather than block the publisher.
func (b *Broker) Publish(channel string, evt SolveEvent) {
	b.mu.Lock()
	b.deliver(channel, evt)
	if channel != ChannelAll {
		b.deliver(ChannelAll, evt)
	}
	b.mu.Unlock()
}

func (b *Broker) deliver(channel string, evt SolveEvent) {
	for ch := range b.subs[channel] {
		select {
		case ch <- evt:
		default:
		}
	}
}

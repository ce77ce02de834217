package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// EventBroker fans solve events out to subscribers.
type EventBroker interface {
	Subscribe(channel string) chan SolveEvent
	Unsubscribe(channel string, ch chan SolveEvent)
	Publish(channel string, evt SolveEvent)
}

// RedisBroker implements EventBroker over Redis Pub/Sub so event streams
// survive running more than one API replica. Each subscriber holds a
// dedicated PubSub connection, released on Unsubscribe.
type RedisBroker struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[chan SolveEvent]*redis.PubSub
}

func NewRedisBroker(addr, password string) (*RedisBroker, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBroker{rdb: rdb, subs: map[chan SolveEvent]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(channel string) chan SolveEvent {
	ch := make(chan SolveEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(channel))
	// initial consume to ensure subscription
	_, _ = ps.Receive(ctx)

	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()

	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt SolveEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

// Unsubscribe closes the subscriber's PubSub connection, which ends the
// reader goroutine's range over ps.Channel() and closes ch.
func (b *RedisBroker) Unsubscribe(channel string, ch chan SolveEvent) {
	b.mu.Lock()
	ps := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ps != nil {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(channel string, evt SolveEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	_ = b.rdb.Publish(ctx, b.chanName(channel), data).Err()
	if channel != ChannelAll {
		_ = b.rdb.Publish(ctx, b.chanName(ChannelAll), data).Err()
	}
}

func (b *RedisBroker) chanName(channel string) string { return "solve:" + channel }

// Package events fans out ledger events to any number of subscribers, such
// as the websocket clients watching the chain.
package events

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// messageBuffer is the number of messages a subscriber can fall behind
// before new messages are dropped for it. A websocket write can be slow.
const messageBuffer = 100

// Events maintains the set of subscribers by a unique id.
type Events struct {
	prefix  string
	mu      sync.RWMutex
	subs    map[string]chan string
	closed  bool
	dropped atomic.Uint64
}

// New constructs an events value. Only messages starting with the prefix are
// delivered to subscribers, with the prefix removed. An empty prefix
// delivers every message.
func New(prefix string) *Events {
	return &Events{
		prefix: prefix,
		subs:   make(map[string]chan string),
	}
}

// Subscribe registers the id and returns the channel its events arrive on.
// Subscribing an id twice returns the same channel.
func (evt *Events) Subscribe(id string) (<-chan string, error) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if evt.closed {
		return nil, fmt.Errorf("subscribing %q: events shut down", id)
	}

	if ch, exists := evt.subs[id]; exists {
		return ch, nil
	}

	ch := make(chan string, messageBuffer)
	evt.subs[id] = ch

	return ch, nil
}

// Unsubscribe removes the id and closes its channel.
func (evt *Events) Unsubscribe(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)

	return nil
}

// Publish delivers the message to every subscriber without blocking. A
// subscriber with a full buffer misses the message.
func (evt *Events) Publish(msg string) {
	msg, ok := strings.CutPrefix(msg, evt.prefix)
	if !ok {
		return
	}
	msg = strings.TrimSpace(msg)

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subs {
		select {
		case ch <- msg:
		default:
			evt.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Dropped returns the number of messages lost to slow subscribers.
func (evt *Events) Dropped() uint64 {
	return evt.dropped.Load()
}

// Shutdown closes every subscriber channel. Later subscriptions fail.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
	evt.closed = true
}

// Package events provides a non-blocking event broadcaster for explorer
// state changes and user-visible notifications.
package events

import (
	"sync"
	"time"
)

const (
	EventNavigated   = "navigated"
	EventListed      = "listed"
	EventSearchDone  = "search_done"
	EventTagsChanged = "tags_changed"
	EventBatchDone   = "batch_done"
	EventError       = "error"
)

// Event represents a state change or a transient notification.
type Event struct {
	Type      string `json:"type"`
	Path      string `json:"path,omitempty"`
	Message   string `json:"message,omitempty"`
	Count     int    `json:"count,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster manages subscribers and publishes events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe adds a new subscriber and returns its event channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster) Subscribe() chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subscribers, ch)
	close(ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers. Non-blocking: drops events
// for slow consumers.
func (b *Broadcaster) Publish(event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Drop event for slow consumer
		}
	}
}

// PublishError publishes a transient error notification.
func (b *Broadcaster) PublishError(path, message string) {
	b.Publish(Event{Type: EventError, Path: path, Message: message})
}

// Count returns the current number of subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

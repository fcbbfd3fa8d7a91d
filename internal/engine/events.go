package engine

import (
	"sync"
	"time"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// EventType names an observable engine outcome.
type EventType string

const (
	EventQueued          EventType = "alertQueued"
	EventSuppressed      EventType = "alertSuppressed"
	EventGrouped         EventType = "alertGrouped"
	EventGroupProcessed  EventType = "alertGroupProcessed"
	EventDelivered       EventType = "alertDelivered"
	EventDeliveryFailed  EventType = "alertDeliveryFailed"
	EventEscalated       EventType = "alertEscalated"
	EventProcessingError EventType = "alertProcessingError"
)

// Event is emitted to subscribed observers as alerts move through the
// pipeline. Fields carries event-specific detail (counts, levels, errors).
type Event struct {
	Type   EventType      `json:"type"`
	Time   time.Time      `json:"time"`
	Alert  *alert.Alert   `json:"alert,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Handler receives engine events. Handlers are invoked synchronously from
// the engine's execution context and must not call back into the engine.
type Handler func(Event)

// Subscribe registers an observer for all subsequent events.
func (e *Engine) Subscribe(h Handler) {
	e.handlersMu.Lock()
	defer e.handlersMu.Unlock()
	e.handlers = append(e.handlers, h)
}

// emit delivers events to every subscriber. Callers must not hold e.mu.
func (e *Engine) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	e.handlersMu.RLock()
	handlers := e.handlers
	e.handlersMu.RUnlock()

	for _, ev := range events {
		for _, h := range handlers {
			h(ev)
		}
	}
}

// EventBuffer is a thread-safe ring buffer of recent events, backing the
// API's event listing.
type EventBuffer struct {
	mu      sync.RWMutex
	entries []Event
	size    int
	head    int
	count   int
}

// NewEventBuffer creates a ring buffer holding up to size events.
func NewEventBuffer(size int) *EventBuffer {
	return &EventBuffer{
		entries: make([]Event, size),
		size:    size,
	}
}

// Record stores one event, evicting the oldest when full. It satisfies
// Handler so a buffer can be subscribed directly.
func (b *EventBuffer) Record(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.head] = ev
	b.head = (b.head + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Recent returns up to n of the most recent events in chronological order.
func (b *EventBuffer) Recent(n int) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := b.count
	if n < count {
		count = n
	}
	result := make([]Event, count)
	for i := 0; i < count; i++ {
		idx := (b.head - count + i + b.size) % b.size
		result[i] = b.entries[idx]
	}
	return result
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

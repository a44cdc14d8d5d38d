// Package notify carries change events from the services to whoever is
// listening. Delivery is fire-and-forget.
package notify

import "sync"

// Event names published by the services.
const (
	EventNewRequest            = "new_request"
	EventRequestUpdated        = "request_updated"
	EventAssistanceRequested   = "assistance_requested"
	EventInventoryUpdated      = "inventory_updated"
	EventReplenishmentRequest  = "replenishment_requested"
	EventReplenishmentResolved = "replenishment_resolved"
)

// Publisher must not block the caller and must not fail it.
type Publisher interface {
	Publish(event string, payload any)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(string, any) {}

// Message is one recorded event.
type Message struct {
	Event   string
	Payload any
}

// Recorder keeps every published event in memory; used by tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Publish(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Event: event, Payload: payload})
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Events returns just the event names, in publish order.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.messages))
	for _, m := range r.messages {
		names = append(names, m.Event)
	}
	return names
}

// Multi fans one event out to several publishers.
type Multi []Publisher

func (m Multi) Publish(event string, payload any) {
	for _, p := range m {
		p.Publish(event, payload)
	}
}

package telemetry

import "sync"

// EventQueue is the single synchronization point between the broker
// callback context and the presentation loop. Unbounded FIFO: Push never
// blocks and never drops, DrainAll removes everything in one critical
// section so the consumer observes arrival order.
//
// Channels were considered and rejected: a buffered channel either bounds
// the queue or blocks the producer, and draining one cannot be atomic
// against concurrent pushes.
type EventQueue struct {
	mu sync.Mutex
	q  []Event
}

func NewEventQueue() *EventQueue { return &EventQueue{} }

func (eq *EventQueue) Push(e Event) {
	eq.mu.Lock()
	eq.q = append(eq.q, e)
	eq.mu.Unlock()
}

// DrainAll atomically takes every queued event in arrival order.
// Empty queue returns nil immediately.
func (eq *EventQueue) DrainAll() []Event {
	eq.mu.Lock()
	out := eq.q
	eq.q = nil
	eq.mu.Unlock()
	return out
}

func (eq *EventQueue) Len() int {
	eq.mu.Lock()
	n := len(eq.q)
	eq.mu.Unlock()
	return n
}

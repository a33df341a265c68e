package orchestrator

import (
	"log"
	"sync/atomic"
	"time"
)

// EventEmitter fans orchestrator events out to one subscriber. A slow
// subscriber never blocks orchestration: full-buffer events are
// dropped after a short grace period.
type EventEmitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEventEmitter creates an emitter with the given buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{events: make(chan Event, bufferSize)}
}

// Emit sends an event, dropping it if the subscriber cannot drain in
// time.
func (e *EventEmitter) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case e.events <- event:
		return
	default:
	}

	// Give the receiver a brief chance to drain before dropping.
	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 {
			log.Printf("[orchestrator] event channel full, dropped event (total %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns how many events have been dropped.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns the read-only subscription channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the events channel.
func (e *EventEmitter) Close() {
	close(e.events)
}

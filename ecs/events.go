package ecs

import "github.com/milk9111/groundnpc/npc"

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Tick int
	Data any
}

const (
	EventTypeAgent   = "agent"
	EventTypeDamage  = "damage"
	EventTypeDestroy = "destroy"
)

// DamageEvent is pushed for every damage application that changed state.
type DamageEvent struct {
	Damage    npc.Damage
	Destroyed bool
	// BlockDestroyed is set when a structure block reached zero integrity.
	BlockDestroyed bool
}

// DestroyEvent is pushed when the cleanup pass removes an entity.
type DestroyEvent struct {
	Entity Entity
	Kind   npc.Kind
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Pending returns the queued events without consuming them.
func (q *EventQueue) Pending() []Event {
	if q == nil {
		return nil
	}
	return q.items
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}

// AgentSink forwards agent events into the world queue.
type AgentSink struct {
	w *World
}

func NewAgentSink(w *World) AgentSink {
	return AgentSink{w: w}
}

func (s AgentSink) Emit(e npc.Event) {
	s.w.Events().Push(Event{Type: EventTypeAgent, Tick: e.Tick, Data: e})
}

package npc

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type EventKind int

const (
	EventWaypointReached EventKind = iota + 1
	EventWaypointStuck
	EventEnemyAcquired
	EventEnemyLost
	EventShotFired
	EventModeChanged
	EventFlying
	EventGrounded
)

var eventKindNames = map[EventKind]string{
	EventWaypointReached: "waypoint_reached",
	EventWaypointStuck:   "waypoint_stuck",
	EventEnemyAcquired:   "enemy_acquired",
	EventEnemyLost:       "enemy_lost",
	EventShotFired:       "shot_fired",
	EventModeChanged:     "mode_changed",
	EventFlying:          "flying",
	EventGrounded:        "grounded",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EventKind) UnmarshalText(b []byte) error {
	for kind, name := range eventKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("npc: unknown event kind %q", b)
}

// Event is something observable that happened to one agent during a tick.
// Fields not meaningful for a kind are left zero.
type Event struct {
	Kind  EventKind `json:"kind"`
	Agent uint64    `json:"agent"`
	Tick  int       `json:"tick"`

	Entity    EntityID    `json:"entity,omitempty"`
	Component ComponentID `json:"component"`

	// Position is the agent's position; To is the goal, hit point or target.
	Position mgl64.Vec3 `json:"position"`
	To       mgl64.Vec3 `json:"to"`

	Mode    Mode   `json:"mode"`
	Damaged bool   `json:"damaged,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type EventSink interface {
	Emit(e Event)
}

// EventFunc adapts a function to an EventSink.
type EventFunc func(Event)

func (f EventFunc) Emit(e Event) { f(e) }

// EventBuffer collects events in order. The zero value is ready to use.
type EventBuffer struct {
	events []Event
}

func (b *EventBuffer) Emit(e Event) {
	b.events = append(b.events, e)
}

// Drain returns the buffered events and empties the buffer.
func (b *EventBuffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}

func (b *EventBuffer) Len() int { return len(b.events) }

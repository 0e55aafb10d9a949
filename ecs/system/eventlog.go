package system

import "github.com/milk9111/groundnpc/ecs"

// EventSink receives every world event once, in push order.
type EventSink interface {
	HandleEvent(evt ecs.Event)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(evt ecs.Event)

func (f EventSinkFunc) HandleEvent(evt ecs.Event) { f(evt) }

// EventLogSystem drains the world event queue into its sinks. It should
// be the last system of a tick.
type EventLogSystem struct {
	sinks []EventSink
}

func NewEventLogSystem(sinks ...EventSink) *EventLogSystem {
	return &EventLogSystem{sinks: sinks}
}

func (s *EventLogSystem) AddSink(sink EventSink) {
	if s == nil || sink == nil {
		return
	}
	s.sinks = append(s.sinks, sink)
}

func (s *EventLogSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	for _, evt := range w.Events().Drain() {
		for _, sink := range s.sinks {
			sink.HandleEvent(evt)
		}
	}
}

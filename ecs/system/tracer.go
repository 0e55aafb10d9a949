package system

import (
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

const (
	tracerFrames    = 10
	shortTracerDist = 50.0
)

// TracerSystem turns ShotFired events into short-lived tracer entities.
type TracerSystem struct{}

func NewTracerSystem() *TracerSystem {
	return &TracerSystem{}
}

func (s *TracerSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	for _, evt := range w.Events().Pending() {
		if evt.Type != ecs.EventTypeAgent {
			continue
		}
		shot, ok := evt.Data.(npc.Event)
		if !ok || shot.Kind != npc.EventShotFired {
			continue
		}
		frames := tracerFrames
		if shot.To.Sub(shot.Position).Len() < shortTracerDist {
			frames /= 2
		}
		e := ecs.CreateEntity(w)
		_ = ecs.Add(w, e, component.TracerComponent.Kind(), &component.Tracer{
			From:    shot.Position,
			To:      shot.To,
			Damaged: shot.Damaged,
		})
		_ = ecs.Add(w, e, component.TTLComponent.Kind(), &component.TTL{Frames: frames})
	}
}

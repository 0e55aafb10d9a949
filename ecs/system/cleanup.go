package system

import (
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

// CleanupSystem destroys entities marked for removal and takes their shapes
// out of the physics world. Stale handles held by agents fail their
// generation check afterwards.
type CleanupSystem struct{}

func NewCleanupSystem() *CleanupSystem {
	return &CleanupSystem{}
}

func (s *CleanupSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	pw := w.PhysicsWorld()
	ecs.ForEach(w, component.MarkedForRemovalComponent.Kind(), func(e ecs.Entity, _ *component.MarkedForRemoval) {
		kind := npc.KindUnknown
		if class, ok := ecs.Get(w, e, component.ClassComponent.Kind()); ok {
			kind = class.Kind
		}
		body, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		pw.Remove(e, body)

		if !ecs.Has(w, e, component.TracerComponent.Kind()) {
			w.Events().Push(ecs.Event{
				Type: ecs.EventTypeDestroy,
				Tick: w.Tick(),
				Data: ecs.DestroyEvent{Entity: e, Kind: kind},
			})
		}
		ecs.DestroyEntity(w, e)
	})
}

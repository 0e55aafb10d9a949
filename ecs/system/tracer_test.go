package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

func TestTracerLifetime(t *testing.T) {
	cases := []struct {
		name       string
		to         mgl64.Vec3
		wantFrames int
	}{
		{"short_shot", mgl64.Vec3{10, 0, 0}, tracerFrames / 2},
		{"long_shot", mgl64.Vec3{80, 0, 0}, tracerFrames},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := ecs.NewWorld()
			w.SetPhysicsWorld(ecs.NewPhysicsWorld(nil, 1))
			w.Events().Push(ecs.Event{Type: ecs.EventTypeAgent, Data: npc.Event{Kind: npc.EventShotFired, To: c.to, Damaged: true}})
			w.Events().Push(ecs.Event{Type: ecs.EventTypeAgent, Data: npc.Event{Kind: npc.EventModeChanged}})

			var destroys int
			logs := NewEventLogSystem(EventSinkFunc(func(evt ecs.Event) {
				if evt.Type == ecs.EventTypeDestroy {
					destroys++
				}
			}))
			NewTracerSystem().Update(w)
			logs.Update(w)

			tracers := w.Query(component.TracerComponent.Kind().ID())
			if len(tracers) != 1 {
				t.Fatalf("got %d tracers, want 1", len(tracers))
			}
			e := tracers[0]
			ttl, _ := ecs.Get(w, e, component.TTLComponent.Kind())
			if ttl.Frames != c.wantFrames {
				t.Fatalf("frames = %d, want %d", ttl.Frames, c.wantFrames)
			}

			expiry, cleanup := NewTTLSystem(), NewCleanupSystem()
			for i := 0; i < c.wantFrames; i++ {
				if !ecs.IsAlive(w, e) {
					t.Fatalf("tracer gone after %d frames", i)
				}
				expiry.Update(w)
				cleanup.Update(w)
				logs.Update(w)
			}
			if ecs.IsAlive(w, e) {
				t.Fatalf("tracer outlived its ttl")
			}
			if destroys != 0 {
				t.Fatalf("tracer removal should not be logged")
			}
		})
	}
}

func TestEventLogDrainsInOrder(t *testing.T) {
	w := ecs.NewWorld()
	for i := 0; i < 3; i++ {
		w.Events().Push(ecs.Event{Type: ecs.EventTypeDamage, Tick: i})
	}
	var first, second []int
	s := NewEventLogSystem(EventSinkFunc(func(evt ecs.Event) { first = append(first, evt.Tick) }))
	s.AddSink(EventSinkFunc(func(evt ecs.Event) { second = append(second, evt.Tick) }))
	s.AddSink(nil)

	s.Update(w)
	if len(w.Events().Pending()) != 0 {
		t.Fatalf("queue not drained")
	}
	for i := 0; i < 3; i++ {
		if first[i] != i || second[i] != i {
			t.Fatalf("order mismatch: %v %v", first, second)
		}
	}
}

package observer

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

// Frame is the state of the sandbox after one tick.
type Frame struct {
	Tick       int             `json:"tick"`
	Agents     []AgentView     `json:"agents"`
	Bodies     []BodyView      `json:"bodies"`
	Structures []StructureView `json:"structures,omitempty"`
	Events     []EventView     `json:"events,omitempty"`
}

type AgentView struct {
	ID        uint64       `json:"id"`
	Entity    uint64       `json:"entity"`
	Name      string       `json:"name,omitempty"`
	Faction   string       `json:"faction,omitempty"`
	Position  mgl64.Vec3   `json:"position"`
	Forward   mgl64.Vec3   `json:"forward"`
	Mode      npc.Mode     `json:"mode"`
	Enemy     npc.EntityID `json:"enemy,omitempty"`
	Waypoints int          `json:"waypoints"`
	Target    *mgl64.Vec3  `json:"target,omitempty"`
	Flying    bool         `json:"flying,omitempty"`
}

type BodyView struct {
	Entity   uint64      `json:"entity"`
	Kind     string      `json:"kind"`
	Owner    npc.OwnerID `json:"owner,omitempty"`
	Position mgl64.Vec3  `json:"position"`
	Half     mgl64.Vec3  `json:"half"`
	Health   float64     `json:"health,omitempty"`
}

type StructureView struct {
	Entity uint64      `json:"entity"`
	Owner  npc.OwnerID `json:"owner,omitempty"`
	Blocks []BlockView `json:"blocks"`
}

type BlockView struct {
	Center    mgl64.Vec3 `json:"center"`
	Half      mgl64.Vec3 `json:"half"`
	Integrity float64    `json:"integrity"`
}

type EventView struct {
	Tick int    `json:"tick"`
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Snapshot captures w and the agents driving it.
func Snapshot(w *ecs.World, agents *npc.Collection) Frame {
	f := Frame{Tick: w.Tick()}

	ecs.ForEach(w, component.NPCComponent.Kind(), func(e ecs.Entity, link *component.NPC) {
		if agents == nil {
			return
		}
		a, ok := agents.Get(link.AgentID)
		if !ok || !a.Valid() {
			return
		}
		view := AgentView{
			ID:        a.ID(),
			Entity:    uint64(e),
			Name:      link.Name,
			Position:  a.Body().Position(),
			Forward:   a.Body().Forward(),
			Mode:      a.Mode(),
			Waypoints: a.WaypointCount(),
			Flying:    a.Flying(),
		}
		if owner, ok := ecs.Get(w, e, component.OwnerComponent.Kind()); ok {
			view.Faction, _ = w.Factions().Faction(owner.ID)
		}
		if enemy, ok := a.ActiveEnemy(); ok {
			view.Enemy = enemy
		}
		if target, ok := a.MovementTarget(); ok {
			view.Target = &target
		}
		f.Agents = append(f.Agents, view)
	})

	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, body *component.PhysicsBody, t *component.Transform) {
		if ecs.Has(w, e, component.NPCComponent.Kind()) {
			return
		}
		view := BodyView{Entity: uint64(e), Kind: npc.KindUnknown.String(), Position: t.Position, Half: body.Half}
		if class, ok := ecs.Get(w, e, component.ClassComponent.Kind()); ok {
			view.Kind = class.Kind.String()
		}
		if owner, ok := ecs.Get(w, e, component.OwnerComponent.Kind()); ok {
			view.Owner = owner.ID
		}
		if health, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok {
			view.Health = health.Current
		}
		f.Bodies = append(f.Bodies, view)
	})

	ecs.ForEach(w, component.StructureComponent.Kind(), func(e ecs.Entity, st *component.Structure) {
		view := StructureView{Entity: uint64(e)}
		if owner, ok := ecs.Get(w, e, component.OwnerComponent.Kind()); ok {
			view.Owner = owner.ID
		}
		for _, b := range st.Blocks {
			if b.Alive() {
				view.Blocks = append(view.Blocks, BlockView{Center: b.Center, Half: b.Half, Integrity: b.Integrity})
			}
		}
		f.Structures = append(f.Structures, view)
	})
	return f
}

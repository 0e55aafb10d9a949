package ecs

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/groundnpc/common"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

// Body binds an agent to an entity with a Transform and a dynamic
// PhysicsBody. It holds only the entity handle and re-reads components on
// every call.
type Body struct {
	w *World
	e Entity
}

var _ npc.Body = Body{}

func NewBody(w *World, e Entity) Body {
	return Body{w: w, e: e}
}

func (b Body) Entity() Entity      { return b.e }
func (b Body) ID() npc.EntityID    { return b.e.NPC() }
func (b Body) Gravity() mgl64.Vec3 { return mgl64.Vec3{0, -common.Gravity, 0} }

func (b Body) Owner() npc.OwnerID {
	if o, ok := Get(b.w, b.e, component.OwnerComponent.Kind()); ok {
		return o.ID
	}
	return 0
}

// Valid reports whether the entity is alive, not marked for removal, and
// its body is still registered with the physics world.
func (b Body) Valid() bool {
	if !b.w.IsAlive(b.e) || Has(b.w, b.e, component.MarkedForRemovalComponent.Kind()) {
		return false
	}
	if !Has(b.w, b.e, component.TransformComponent.Kind()) {
		return false
	}
	pb, ok := Get(b.w, b.e, component.PhysicsBodyComponent.Kind())
	if !ok || pb.Body == nil || pb.Static {
		return false
	}
	return b.w.PhysicsWorld().Registered(pb.Shape)
}

func (b Body) transform() *component.Transform {
	t, ok := Get(b.w, b.e, component.TransformComponent.Kind())
	if !ok {
		return &component.Transform{Up: common.Up3, Forward: mgl64.Vec3{0, 0, 1}}
	}
	return t
}

func (b Body) Position() mgl64.Vec3 { return b.transform().Position }
func (b Body) Up() mgl64.Vec3       { return b.transform().Up }
func (b Body) Forward() mgl64.Vec3  { return b.transform().Forward }

func (b Body) Velocity() mgl64.Vec3 {
	pb, ok := Get(b.w, b.e, component.PhysicsBodyComponent.Kind())
	if !ok || pb.Body == nil {
		return mgl64.Vec3{}
	}
	v := pb.Body.Velocity()
	return mgl64.Vec3{v.X, pb.VelY, v.Y}
}

func (b Body) Orient(up, forward mgl64.Vec3) {
	t, ok := Get(b.w, b.e, component.TransformComponent.Kind())
	if !ok {
		return
	}
	t.Up = up
	t.Forward = forward
}

// ApplyForce splits the force into the cp plane and the vertical axis.
// Forces last for one physics step.
func (b Body) ApplyForce(direction mgl64.Vec3, magnitude float64) {
	pb, ok := Get(b.w, b.e, component.PhysicsBodyComponent.Kind())
	if !ok || pb.Body == nil || pb.Static {
		return
	}
	f := direction.Mul(magnitude)
	if math.IsNaN(f.X()) || math.IsNaN(f.Y()) || math.IsNaN(f.Z()) {
		return
	}
	pb.Body.ApplyForceAtWorldPoint(cp.Vector{X: f.X(), Y: f.Z()}, pb.Body.Position())
	pb.ForceY += f.Y()
}

// GaitAnimator stores the movement mode on the entity's Gait component and
// advances the gait cycle.
type GaitAnimator struct {
	w *World
	e Entity
}

func NewGaitAnimator(w *World, e Entity) GaitAnimator {
	return GaitAnimator{w: w, e: e}
}

func (g GaitAnimator) SetMovementMode(m npc.Mode) {
	gait, ok := Get(g.w, g.e, component.GaitComponent.Kind())
	if !ok {
		return
	}
	gait.Mode = m
	switch m {
	case npc.ModeWalking:
		gait.Phase += 1.0 / 30
	case npc.ModeAttacking:
		gait.Phase += 1.0 / 75
	}
	gait.Phase -= math.Floor(gait.Phase)
}

package ecs

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/groundnpc/common"
	"github.com/milk9111/groundnpc/ecs/component"
)

const (
	collisionTypeSolid cp.CollisionType = iota + 1
	collisionTypeDynamic
)

// groundStick keeps a grounded body glued to terrain that drops away
// slower than this per step.
const groundStick = 0.3

// shapeRef maps a cp shape back to the entity and the 3D box it stands for.
type shapeRef struct {
	entity Entity
	block  int

	// static boxes
	center mgl64.Vec3
	half   mgl64.Vec3

	// dynamic bodies
	transform *component.Transform
	body      *component.PhysicsBody

	// structure blocks
	structure *component.Structure
}

func (r shapeRef) box() (center, half mgl64.Vec3) {
	switch {
	case r.transform != nil && r.body != nil:
		return r.transform.Position, r.body.Half
	case r.structure != nil && r.block >= 0 && r.block < len(r.structure.Blocks):
		b := r.structure.Blocks[r.block]
		return b.Center, b.Half
	default:
		return r.center, r.half
	}
}

// PhysicsWorld owns the Chipmunk space and the terrain. The cp plane is the
// world XZ plane: cp X is world x and cp Y is world z. Vertical motion is
// integrated here against the terrain.
type PhysicsWorld struct {
	space   *cp.Space
	terrain *Terrain

	shapeToEntity map[*cp.Shape]shapeRef
	entityShapes  map[Entity][]*cp.Shape
	handlersReady bool
}

// NewPhysicsWorld creates a physics world over terrain. damping is the
// fraction of horizontal velocity kept per second.
func NewPhysicsWorld(terrain *Terrain, damping float64) *PhysicsWorld {
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{})
	if damping > 0 && damping <= 1 {
		space.SetDamping(damping)
	}
	if terrain == nil {
		terrain = NewTerrain(0, 0, 1, 0, nil, nil)
	}

	pw := &PhysicsWorld{
		space:         space,
		terrain:       terrain,
		shapeToEntity: make(map[*cp.Shape]shapeRef),
		entityShapes:  make(map[Entity][]*cp.Shape),
	}
	pw.setupHandlers()
	return pw
}

// Space returns the underlying Chipmunk space.
func (pw *PhysicsWorld) Space() *cp.Space {
	if pw == nil {
		return nil
	}
	return pw.space
}

func (pw *PhysicsWorld) Terrain() *Terrain {
	if pw == nil {
		return nil
	}
	return pw.terrain
}

func (pw *PhysicsWorld) register(shape *cp.Shape, ref shapeRef) {
	pw.shapeToEntity[shape] = ref
	pw.entityShapes[ref.entity] = append(pw.entityShapes[ref.entity], shape)
}

// AddDynamic creates a box body for an entity that moves under forces.
func (pw *PhysicsWorld) AddDynamic(e Entity, t *component.Transform, body *component.PhysicsBody) {
	if pw == nil || pw.space == nil || t == nil || body == nil || body.Body != nil {
		return
	}
	if body.Mass <= 0 {
		body.Mass = 1
	}

	cpBody := cp.NewBody(body.Mass, math.Inf(1))
	cpBody.SetAngle(0)
	cpBody.SetPosition(cp.Vector{X: t.Position.X(), Y: t.Position.Z()})
	shape := cp.NewBox(cpBody, 2*body.Half.X(), 2*body.Half.Z(), 0)
	shape.SetFriction(body.Friction)
	shape.SetCollisionType(collisionTypeDynamic)

	pw.space.AddBody(cpBody)
	pw.space.AddShape(shape)
	pw.register(shape, shapeRef{entity: e, block: -1, transform: t, body: body})

	body.Body = cpBody
	body.Shape = shape
}

// AddStatic adds an immovable box, such as an obstacle.
func (pw *PhysicsWorld) AddStatic(e Entity, center, half mgl64.Vec3) *cp.Shape {
	if pw == nil || pw.space == nil {
		return nil
	}
	shape := pw.staticBox(center, half)
	pw.register(shape, shapeRef{entity: e, block: -1, center: center, half: half})
	return shape
}

// AddBlock adds block i of a structure as a static box.
func (pw *PhysicsWorld) AddBlock(e Entity, s *component.Structure, i int) *cp.Shape {
	if pw == nil || pw.space == nil || s == nil || i < 0 || i >= len(s.Blocks) {
		return nil
	}
	b := &s.Blocks[i]
	shape := pw.staticBox(b.Center, b.Half)
	pw.register(shape, shapeRef{entity: e, block: i, structure: s})
	b.Shape = shape
	return shape
}

func (pw *PhysicsWorld) staticBox(center, half mgl64.Vec3) *cp.Shape {
	bb := cp.BB{
		L: center.X() - half.X(),
		B: center.Z() - half.Z(),
		R: center.X() + half.X(),
		T: center.Z() + half.Z(),
	}
	shape := cp.NewBox2(pw.space.StaticBody, bb, 0)
	shape.SetFriction(0.8)
	shape.SetCollisionType(collisionTypeSolid)
	pw.space.AddShape(shape)
	return shape
}

// RemoveShape takes a single shape out of the simulation.
func (pw *PhysicsWorld) RemoveShape(shape *cp.Shape) {
	if pw == nil || shape == nil {
		return
	}
	ref, ok := pw.shapeToEntity[shape]
	if !ok {
		return
	}
	pw.space.RemoveShape(shape)
	delete(pw.shapeToEntity, shape)

	shapes := pw.entityShapes[ref.entity]
	for i, s := range shapes {
		if s == shape {
			shapes = append(shapes[:i], shapes[i+1:]...)
			break
		}
	}
	if len(shapes) == 0 {
		delete(pw.entityShapes, ref.entity)
	} else {
		pw.entityShapes[ref.entity] = shapes
	}
}

// Remove drops every shape of e and its dynamic body.
func (pw *PhysicsWorld) Remove(e Entity, body *component.PhysicsBody) {
	if pw == nil {
		return
	}
	for _, shape := range append([]*cp.Shape(nil), pw.entityShapes[e]...) {
		pw.RemoveShape(shape)
	}
	if body != nil && body.Body != nil && !body.Static {
		pw.space.RemoveBody(body.Body)
	}
	if body != nil {
		body.Body = nil
		body.Shape = nil
	}
}

// Registered reports whether shape is still part of the simulation.
func (pw *PhysicsWorld) Registered(shape *cp.Shape) bool {
	if pw == nil || shape == nil {
		return false
	}
	_, ok := pw.shapeToEntity[shape]
	return ok
}

func (pw *PhysicsWorld) lookup(shape *cp.Shape) (shapeRef, bool) {
	ref, ok := pw.shapeToEntity[shape]
	return ref, ok
}

// Step advances the horizontal simulation, then syncs transforms and
// integrates vertical motion against the terrain.
func (pw *PhysicsWorld) Step(w *World, dt float64) {
	if pw == nil || pw.space == nil || dt <= 0 {
		return
	}
	pw.space.Step(dt)

	ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e Entity, body *component.PhysicsBody, t *component.Transform) {
		if body.Static || body.Body == nil {
			return
		}
		p := body.Body.Position()
		prevY := t.Position.Y()
		ground := pw.terrain.Height(p.X, p.Y) + body.Half.Y()

		body.VelY += (body.ForceY/body.Mass - common.Gravity) * dt
		body.ForceY = 0
		y := prevY + body.VelY*dt

		if y <= ground || (!body.Airborne && y-ground < groundStick) {
			y = ground
			body.VelY = (y - prevY) / dt
			body.Airborne = false
		} else {
			body.Airborne = true
		}
		t.Position = mgl64.Vec3{p.X, y, p.Y}
	})
}

// verticalOverlap reports whether two boxes share any height, so bodies
// pass over low boxes and under high ones.
func verticalOverlap(a, b shapeRef) bool {
	ca, ha := a.box()
	cb, hb := b.box()
	return ca.Y()-ha.Y() < cb.Y()+hb.Y() && cb.Y()-hb.Y() < ca.Y()+ha.Y()
}

func (pw *PhysicsWorld) setupHandlers() {
	if pw == nil || pw.handlersReady || pw.space == nil {
		return
	}

	preSolve := func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*PhysicsWorld)
		if !ok || world == nil {
			return true
		}
		shapeA, shapeB := arb.Shapes()
		refA, okA := world.lookup(shapeA)
		refB, okB := world.lookup(shapeB)
		if !okA || !okB {
			return true
		}
		return verticalOverlap(refA, refB)
	}

	solidHandler := pw.space.NewCollisionHandler(collisionTypeDynamic, collisionTypeSolid)
	solidHandler.UserData = pw
	solidHandler.PreSolveFunc = preSolve

	dynamicHandler := pw.space.NewCollisionHandler(collisionTypeDynamic, collisionTypeDynamic)
	dynamicHandler.UserData = pw
	dynamicHandler.PreSolveFunc = preSolve

	pw.handlersReady = true
}

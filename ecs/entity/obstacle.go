package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/common"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

// NewObstacle adds a static box resting on the terrain.
func NewObstacle(w *ecs.World, spec prefabs.BoxSpec) (ecs.Entity, error) {
	pw := w.PhysicsWorld()
	if pw == nil {
		return 0, fmt.Errorf("obstacle %s: no physics world", spec.Name)
	}
	half := halfOf(spec.Size, mgl64.Vec3{2, 2, 2})
	center := onGround(w, spec.Position.Vec3(), half)

	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		Position: center,
		Up:       common.Up3,
		Forward:  mgl64.Vec3{0, 0, 1},
	}); err != nil {
		return 0, fmt.Errorf("obstacle %s: add transform: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.ClassComponent.Kind(), &component.Class{Kind: npc.KindObstacle, Name: spec.Name}); err != nil {
		return 0, fmt.Errorf("obstacle %s: add class: %w", spec.Name, err)
	}

	shape := pw.AddStatic(e, center, half)
	if err := ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Body:   pw.Space().StaticBody,
		Shape:  shape,
		Half:   half,
		Static: true,
	}); err != nil {
		return 0, fmt.Errorf("obstacle %s: add physics body: %w", spec.Name, err)
	}
	return e, nil
}

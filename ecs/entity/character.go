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

const (
	defaultCharacterMass   = 90
	defaultCharacterHealth = 100
)

// addBody gives e everything a dynamic, damageable body needs.
func addBody(w *ecs.World, e ecs.Entity, kind npc.Kind, name string, owner int64, pos mgl64.Vec3, half mgl64.Vec3, mass, health float64) error {
	t := &component.Transform{
		Position: onGround(w, pos, half),
		Up:       common.Up3,
		Forward:  mgl64.Vec3{0, 0, 1},
	}
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), t); err != nil {
		return fmt.Errorf("add transform: %w", err)
	}
	if err := ecs.Add(w, e, component.ClassComponent.Kind(), &component.Class{Kind: kind, Name: name}); err != nil {
		return fmt.Errorf("add class: %w", err)
	}
	if err := ecs.Add(w, e, component.OwnerComponent.Kind(), &component.Owner{ID: npc.OwnerID(owner)}); err != nil {
		return fmt.Errorf("add owner: %w", err)
	}
	if err := ecs.Add(w, e, component.HealthComponent.Kind(), &component.Health{Current: health, Max: health}); err != nil {
		return fmt.Errorf("add health: %w", err)
	}

	body := &component.PhysicsBody{Half: half, Mass: mass, Friction: 0.6}
	w.PhysicsWorld().AddDynamic(e, t, body)
	if err := ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), body); err != nil {
		return fmt.Errorf("add physics body: %w", err)
	}
	return nil
}

// NewCharacter adds a non-agent unit, such as a commander the agents escort
// or fight.
func NewCharacter(w *ecs.World, spec prefabs.CharacterSpec) (ecs.Entity, error) {
	if w.PhysicsWorld() == nil {
		return 0, fmt.Errorf("character %s: no physics world", spec.Name)
	}
	mass, health := spec.Mass, spec.Health
	if mass <= 0 {
		mass = defaultCharacterMass
	}
	if health <= 0 {
		health = defaultCharacterHealth
	}

	e := ecs.CreateEntity(w)
	half := halfOf(spec.Size, mgl64.Vec3{1, 1.8, 1})
	if err := addBody(w, e, npc.KindCharacter, spec.Name, spec.Owner, spec.Position.Vec3(), half, mass, health); err != nil {
		return 0, fmt.Errorf("character %s: %w", spec.Name, err)
	}
	return e, nil
}

package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

const (
	defaultAgentMass   = 80
	defaultAgentHealth = 100
)

// NewAgent builds an agent body and hands the controller to agents, which
// owns it from then on.
func NewAgent(w *ecs.World, agents *npc.Collection, spec prefabs.AgentSpec) (*npc.Agent, ecs.Entity, error) {
	if w.PhysicsWorld() == nil {
		return nil, 0, fmt.Errorf("agent %s: no physics world", spec.Name)
	}
	if agents == nil {
		return nil, 0, fmt.Errorf("agent %s: %w", spec.Name, npc.ErrNilAgent)
	}
	mass, health := spec.Mass, spec.Health
	if mass <= 0 {
		mass = defaultAgentMass
	}
	if health <= 0 {
		health = defaultAgentHealth
	}

	e := ecs.CreateEntity(w)
	half := halfOf(spec.Size, mgl64.Vec3{1, 1, 1})
	if err := addBody(w, e, npc.KindAgent, spec.Name, spec.Owner, spec.Position.Vec3(), half, mass, health); err != nil {
		return nil, 0, fmt.Errorf("agent %s: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.GaitComponent.Kind(), &component.Gait{}); err != nil {
		return nil, 0, fmt.Errorf("agent %s: add gait: %w", spec.Name, err)
	}

	agent := agents.Spawn(ecs.NewBody(w, e), ecs.NewGaitAnimator(w, e))
	agent.SetWalkFast(spec.WalkFast)
	if err := ecs.Add(w, e, component.NPCComponent.Kind(), &component.NPC{AgentID: agent.ID(), Name: spec.Name}); err != nil {
		agents.Remove(agent.ID())
		return nil, 0, fmt.Errorf("agent %s: add npc: %w", spec.Name, err)
	}

	for _, wp := range spec.Waypoints {
		if err := agent.AddWaypoint(surface(w, wp.Vec3())); err != nil {
			return nil, 0, fmt.Errorf("agent %s: waypoint %v: %w", spec.Name, wp.Vec3(), err)
		}
	}
	return agent, e, nil
}

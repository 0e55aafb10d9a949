package system

import (
	"github.com/milk9111/groundnpc/common"
	"github.com/milk9111/groundnpc/ecs"
)

// PhysicsSystem steps the world's physics by one fixed tick.
type PhysicsSystem struct {
	dt float64
}

func NewPhysicsSystem() *PhysicsSystem {
	return &PhysicsSystem{dt: 1.0 / common.TPS}
}

func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil {
		return
	}
	w.PhysicsWorld().Step(w, ps.dt)
}

package system

import (
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/npc"
)

// NPCSystem ticks every agent of a collection against the world.
type NPCSystem struct {
	agents *npc.Collection
}

func NewNPCSystem(agents *npc.Collection) *NPCSystem {
	return &NPCSystem{agents: agents}
}

func (s *NPCSystem) Agents() *npc.Collection {
	if s == nil {
		return nil
	}
	return s.agents
}

func (s *NPCSystem) Update(w *ecs.World) {
	if s == nil || w == nil || s.agents == nil {
		return
	}
	s.agents.Update(npc.Env{
		Space:    ecs.NewSpace(w),
		Factions: w.Factions(),
		Damager:  ecs.NewDamager(w),
		Events:   ecs.NewAgentSink(w),
		Tick:     w.Tick(),
	})
}

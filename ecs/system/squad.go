package system

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

const (
	formationColumns = 3
	formationSpacing = 3.0

	// followSlack is how far a follower's goal may drift from its queued
	// waypoint before the waypoint is replaced.
	followSlack = 2.0
)

// SquadSystem turns squad orders into agent waypoints.
type SquadSystem struct {
	agents     *npc.Collection
	loadScript ScriptLoader
	scripts    map[ecs.Entity]*squadScript
}

// ScriptLoader returns the source of a named tengo script.
type ScriptLoader func(name string) ([]byte, error)

func NewSquadSystem(agents *npc.Collection, loadScript ScriptLoader) *SquadSystem {
	return &SquadSystem{
		agents:     agents,
		loadScript: loadScript,
		scripts:    make(map[ecs.Entity]*squadScript),
	}
}

// ReloadScripts drops compiled scripts so the next tick recompiles them.
func (s *SquadSystem) ReloadScripts() {
	if s == nil {
		return
	}
	s.scripts = make(map[ecs.Entity]*squadScript)
}

func (s *SquadSystem) Update(w *ecs.World) {
	if s == nil || w == nil || s.agents == nil {
		return
	}
	space := ecs.NewSpace(w)
	ecs.ForEach(w, component.SquadComponent.Kind(), func(e ecs.Entity, sq *component.Squad) {
		members := s.members(sq)
		if sq.Order != sq.AppliedOrder {
			s.applyOrder(e, sq, members)
		}

		switch sq.Order {
		case component.OrderPatrol:
			s.patrol(sq, members)
		case component.OrderAttack:
			holdPoint(members, sq.Target)
		case component.OrderGuard:
			holdPoint(members, sq.Anchor)
		case component.OrderFollow:
			s.follow(space, sq, members)
		case component.OrderScript:
			s.runScript(w, e, sq, members)
		}
	})
}

// members resolves the squad's live agents in roster order and forgets
// agents the collection no longer owns.
func (s *SquadSystem) members(sq *component.Squad) []*npc.Agent {
	out := make([]*npc.Agent, 0, len(sq.Members))
	kept := sq.Members[:0]
	for _, id := range sq.Members {
		a, ok := s.agents.Get(id)
		if !ok {
			delete(sq.Progress, id)
			continue
		}
		kept = append(kept, id)
		out = append(out, a)
	}
	sq.Members = kept
	return out
}

func (s *SquadSystem) applyOrder(e ecs.Entity, sq *component.Squad, members []*npc.Agent) {
	for _, a := range members {
		a.ClearWaypointsConservingEnemy()
		a.SetWalkFast(sq.Order == component.OrderFollow)
	}
	sq.Progress = make(map[uint64]int, len(members))
	delete(s.scripts, e)
	sq.AppliedOrder = sq.Order
}

// movementWaypoints returns the queued goals that are not enemy tracking.
func movementWaypoints(a *npc.Agent) []npc.Waypoint {
	var out []npc.Waypoint
	for _, wp := range a.Waypoints() {
		if !wp.Enemy {
			out = append(out, wp)
		}
	}
	return out
}

// patrol walks each member around the patrol loop. A member moves on to
// the next point once it consumed the current one.
func (s *SquadSystem) patrol(sq *component.Squad, members []*npc.Agent) {
	if len(sq.Patrol) == 0 {
		return
	}
	if sq.Progress == nil {
		sq.Progress = make(map[uint64]int, len(members))
	}
	for _, a := range members {
		if len(movementWaypoints(a)) > 0 {
			continue
		}
		idx := sq.Progress[a.ID()]
		// a point the agent already stands on is rejected; try the next
		for range sq.Patrol {
			point := sq.Anchor.Add(sq.Patrol[idx%len(sq.Patrol)])
			idx = (idx + 1) % len(sq.Patrol)
			if a.AddWaypoint(point) == nil {
				break
			}
		}
		sq.Progress[a.ID()] = idx
	}
}

// atPoint reports whether a already stands within reach of p on the
// ground plane, where a new waypoint would be consumed at once.
func atPoint(a *npc.Agent, p mgl64.Vec3) bool {
	if !a.Valid() {
		return true
	}
	pos := a.Body().Position()
	return math.Hypot(pos.X()-p.X(), pos.Z()-p.Z()) <= a.Config().ReachDistance
}

// holdPoint sends idle members back to point.
func holdPoint(members []*npc.Agent, point mgl64.Vec3) {
	for _, a := range members {
		if len(movementWaypoints(a)) == 0 && !atPoint(a, point) {
			_ = a.AddWaypoint(point)
		}
	}
}

// calcOffset places member index in rows of formationColumns behind the
// followed entity.
func calcOffset(index int) mgl64.Vec3 {
	col := index%formationColumns - formationColumns/2
	row := index/formationColumns + 1
	return mgl64.Vec3{float64(col) * formationSpacing, 0, -float64(row) * formationSpacing}
}

func (s *SquadSystem) follow(space npc.Space, sq *component.Squad, members []*npc.Agent) {
	leader, ok := space.Entity(sq.Follow)
	if !ok {
		return
	}
	for i, a := range members {
		goal := leader.Position.Add(calcOffset(i))
		wps := movementWaypoints(a)
		if len(wps) == 1 && !wps[0].Tracked() && wps[0].Position.Sub(goal).Len() <= followSlack {
			continue
		}
		if len(wps) > 0 {
			a.ClearWaypointsConservingEnemy()
		}
		if !atPoint(a, goal) {
			_ = a.AddWaypoint(goal)
		}
	}
}

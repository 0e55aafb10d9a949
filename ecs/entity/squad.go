package entity

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

// NewSquad adds a squad entity. members are agent ids and follow is the
// entity a follow order tracks.
func NewSquad(w *ecs.World, spec prefabs.SquadSpec, members []uint64, follow npc.EntityID) (ecs.Entity, error) {
	patrol := make([]mgl64.Vec3, 0, len(spec.Patrol))
	for _, p := range spec.Patrol {
		patrol = append(patrol, p.Vec3())
	}

	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.SquadComponent.Kind(), &component.Squad{
		Name:     spec.Name,
		Order:    component.SquadOrder(strings.ToLower(spec.Order)),
		Anchor:   surface(w, spec.Anchor.Vec3()),
		Patrol:   patrol,
		Target:   surface(w, spec.Target.Vec3()),
		Follow:   follow,
		Script:   spec.Script,
		Members:  append([]uint64(nil), members...),
		Progress: make(map[uint64]int, len(members)),
	}); err != nil {
		return 0, fmt.Errorf("squad %s: add squad: %w", spec.Name, err)
	}
	return e, nil
}

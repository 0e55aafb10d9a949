package entity

import (
	"math"
	"testing"

	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

func TestLoadScenarioSkirmish(t *testing.T) {
	w := ecs.NewWorld()
	agents := npc.NewCollection(npc.DefaultConfig(), nil)
	sc, err := LoadScenario(w, agents, "skirmish")
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}

	if agents.Len() != 9 || len(sc.Agents) != 9 {
		t.Fatalf("agents = %d/%d, want 9", agents.Len(), len(sc.Agents))
	}
	if len(sc.Squads) != 4 {
		t.Fatalf("squads = %d, want 4", len(sc.Squads))
	}
	if !w.Factions().IsHostile(1, 2) {
		t.Fatalf("red and blue should be at war")
	}

	space := ecs.NewSpace(w)
	for name, a := range sc.Agents {
		e := sc.Entities[name]
		npcComp, ok := ecs.Get(w, e, component.NPCComponent.Kind())
		if !ok || npcComp.AgentID != a.ID() {
			t.Fatalf("agent %s not linked to its entity", name)
		}
		if !a.Valid() {
			t.Fatalf("agent %s invalid after build", name)
		}
		ent, ok := space.Entity(e.NPC())
		if !ok || ent.Kind != npc.KindAgent {
			t.Fatalf("agent %s snapshot = %+v", name, ent)
		}
	}

	outpost := sc.Entities["outpost"]
	if comps := space.Components(outpost.NPC()); len(comps) != 6 {
		t.Fatalf("outpost blocks = %d, want 6", len(comps))
	}
	st, _ := ecs.Get(w, outpost, component.StructureComponent.Kind())
	// the outpost sits on a plateau of height 2
	if got := st.Blocks[0].Center.Y(); math.Abs(got-3) > 1e-9 {
		t.Fatalf("block 0 center y = %v, want 3", got)
	}

	beacon, _ := ecs.Get(w, sc.Entities["beacon"], component.StructureComponent.Kind())
	if !beacon.Indestructible {
		t.Fatalf("beacon should be indestructible")
	}

	escort, _ := ecs.Get(w, sc.Squads["red_escort"], component.SquadComponent.Kind())
	if escort.Order != component.OrderFollow || escort.Follow != sc.Entities["red_captain"].NPC() {
		t.Fatalf("escort squad = %+v", escort)
	}
}

func TestBuildScenarioPlacesBodiesOnTerrain(t *testing.T) {
	spec := prefabs.ScenarioSpec{
		Name: "hill",
		Terrain: prefabs.TerrainSpec{
			Width: 50, Depth: 50, Cell: 1,
			Hills: []prefabs.HillSpec{{X: 25, Z: 25, Height: 4, Radius: 5}},
		},
		Agents: []prefabs.AgentSpec{{Name: "top", Position: prefabs.Vec3Spec{25, 0, 25}, Waypoints: []prefabs.Vec3Spec{{40, 0, 25}}}},
		Obstacles: []prefabs.BoxSpec{{Name: "crate", Position: prefabs.Vec3Spec{10, 0, 10}, Size: prefabs.Vec3Spec{2, 2, 2}}},
	}
	w := ecs.NewWorld()
	agents := npc.NewCollection(npc.DefaultConfig(), nil)
	sc, err := BuildScenario(w, agents, spec)
	if err != nil {
		t.Fatalf("BuildScenario: %v", err)
	}

	top := sc.Agents["top"]
	if y := top.Body().Position().Y(); math.Abs(y-4.5) > 1e-9 {
		t.Fatalf("agent y = %v, want 4.5 on the hill top", y)
	}
	wp, ok := top.CurrentWaypoint()
	terrain := w.PhysicsWorld().Terrain()
	if !ok || math.Abs(wp.Position.Y()-terrain.Height(40, 25)) > 1e-9 {
		t.Fatalf("waypoint = %+v, want on the surface", wp)
	}

	crate, _ := ecs.Get(w, sc.Entities["crate"], component.TransformComponent.Kind())
	if math.Abs(crate.Position.Y()-1-terrain.Height(10, 10)) > 1e-9 {
		t.Fatalf("crate center y = %v, want 1 above the ground", crate.Position.Y())
	}
}

func TestBuildScenarioRejectsInvalidSpec(t *testing.T) {
	spec := prefabs.ScenarioSpec{
		Name:   "bad",
		Agents: []prefabs.AgentSpec{{Name: "a", Enemy: "nobody"}},
	}
	agents := npc.NewCollection(npc.DefaultConfig(), nil)
	if _, err := BuildScenario(ecs.NewWorld(), agents, spec); err == nil {
		t.Fatalf("expected a validation error")
	}
	if agents.Len() != 0 {
		t.Fatalf("invalid spec should not spawn agents")
	}
}

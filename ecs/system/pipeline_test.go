package system

import (
	"bytes"
	"errors"
	"log"
	"math"
	"testing"

	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/ecs/entity"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

func flatSpec() prefabs.ScenarioSpec {
	return prefabs.ScenarioSpec{
		Name:     "test",
		Terrain:  prefabs.TerrainSpec{Width: 100, Depth: 100, Cell: 2},
		Factions: []prefabs.FactionSpec{{Name: "red", Owners: []int64{1}}, {Name: "blue", Owners: []int64{2}}},
		Wars:     [][2]string{{"red", "blue"}},
	}
}

type harness struct {
	w        *ecs.World
	agents   *npc.Collection
	pipeline *Pipeline
	scenario *entity.Scenario
	events   []ecs.Event
	logs     bytes.Buffer
}

func newHarness(t *testing.T, spec prefabs.ScenarioSpec, loader ScriptLoader) *harness {
	t.Helper()
	h := &harness{w: ecs.NewWorld()}
	h.agents = npc.NewCollection(npc.DefaultConfig(), log.New(&h.logs, "", 0))
	sc, err := entity.BuildScenario(h.w, h.agents, spec)
	if err != nil {
		t.Fatalf("BuildScenario: %v", err)
	}
	h.scenario = sc
	h.pipeline = AddPipeline(h.w, h.agents, loader, EventSinkFunc(func(evt ecs.Event) {
		h.events = append(h.events, evt)
	}))
	return h
}

func (h *harness) agentEvents(kind npc.EventKind) []npc.Event {
	var out []npc.Event
	for _, evt := range h.events {
		if e, ok := evt.Data.(npc.Event); ok && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestAgentWalksToWaypointOnFlatGround(t *testing.T) {
	spec := flatSpec()
	spec.Agents = []prefabs.AgentSpec{{
		Name:      "walker",
		Owner:     1,
		Position:  prefabs.Vec3Spec{20, 0, 20},
		Waypoints: []prefabs.Vec3Spec{{30, 0, 20}},
	}}
	h := newHarness(t, spec, nil)
	walker := h.scenario.Agents["walker"]

	consumedAt := -1
	for tick := 0; tick < 600; tick++ {
		h.w.Update()
		if walker.Flying() {
			t.Fatalf("agent flying at tick %d", tick)
		}
		if walker.WaypointCount() == 0 {
			consumedAt = tick
			break
		}
	}
	if consumedAt < 0 {
		t.Fatalf("waypoint not consumed, agent at %v", walker.Body().Position())
	}
	pos := walker.Body().Position()
	if d := math.Hypot(pos.X()-30, pos.Z()-20); d > npc.DefaultConfig().ReachDistance+0.5 {
		t.Fatalf("consumed %v away from the goal", d)
	}
	if got := len(h.agentEvents(npc.EventWaypointReached)); got != 1 {
		t.Fatalf("got %d reached events, want 1", got)
	}
	if h.agents.Faults() != 0 {
		t.Fatalf("agent faults: %s", h.logs.String())
	}
}

func TestAgentAcquiresAndShootsHostile(t *testing.T) {
	spec := flatSpec()
	spec.Characters = []prefabs.CharacterSpec{{Name: "target", Owner: 2, Position: prefabs.Vec3Spec{40, 0, 20}, Health: 100}}
	spec.Agents = []prefabs.AgentSpec{{Name: "gunner", Owner: 1, Position: prefabs.Vec3Spec{20, 0, 20}}}
	h := newHarness(t, spec, nil)
	gunner := h.scenario.Agents["gunner"]
	target := h.scenario.Entities["target"]

	acquired := false
	for tick := 0; tick < 50 && !acquired; tick++ {
		h.w.Update()
		id, ok := gunner.ActiveEnemy()
		acquired = ok && id == target.NPC()
	}
	if !acquired {
		t.Fatalf("enemy not acquired within 50 ticks")
	}
	head, ok := gunner.CurrentWaypoint()
	if !ok || !head.Enemy || head.Entity != target.NPC() {
		t.Fatalf("head waypoint = %+v ok=%v, want enemy tracking", head, ok)
	}

	for tick := 0; tick < 120; tick++ {
		h.w.Update()
	}
	if len(h.agentEvents(npc.EventShotFired)) == 0 {
		t.Fatalf("no shots fired")
	}
	health, ok := ecs.Get(h.w, target, component.HealthComponent.Kind())
	if !ok || health.Current >= health.Max {
		t.Fatalf("target took no damage: %+v", health)
	}
}

func TestDestroyedEnemyIsDropped(t *testing.T) {
	spec := flatSpec()
	spec.Characters = []prefabs.CharacterSpec{{Name: "target", Owner: 2, Position: prefabs.Vec3Spec{30, 0, 20}, Health: 5}}
	spec.Agents = []prefabs.AgentSpec{{Name: "gunner", Owner: 1, Position: prefabs.Vec3Spec{20, 0, 20}, Enemy: "target"}}
	h := newHarness(t, spec, nil)
	gunner := h.scenario.Agents["gunner"]
	target := h.scenario.Entities["target"]

	for tick := 0; tick < 240 && ecs.IsAlive(h.w, target); tick++ {
		h.w.Update()
	}
	if ecs.IsAlive(h.w, target) {
		t.Fatalf("target survived")
	}
	h.w.Update()

	if _, ok := gunner.ActiveEnemy(); ok {
		t.Fatalf("agent still engaged with a destroyed entity")
	}
	if gunner.WaypointCount() != 0 {
		t.Fatalf("enemy waypoint left behind: %+v", gunner.Waypoints())
	}
	destroyed := false
	for _, evt := range h.events {
		if d, ok := evt.Data.(ecs.DestroyEvent); ok && d.Entity == target {
			destroyed = d.Kind == npc.KindCharacter
		}
	}
	if !destroyed {
		t.Fatalf("no destroy event for the target")
	}
	if lost := h.agentEvents(npc.EventEnemyLost); len(lost) == 0 || lost[len(lost)-1].Entity != target.NPC() {
		t.Fatalf("enemy lost events = %+v", lost)
	}
}

func TestDeadAgentIsPurged(t *testing.T) {
	spec := flatSpec()
	spec.Agents = []prefabs.AgentSpec{{Name: "victim", Owner: 2, Position: prefabs.Vec3Spec{50, 0, 50}}}
	h := newHarness(t, spec, nil)
	e := h.scenario.Entities["victim"]

	_ = ecs.Add(h.w, e, component.MarkedForRemovalComponent.Kind(), &component.MarkedForRemoval{})
	h.w.Update()
	h.w.Update()
	if h.agents.Len() != 0 {
		t.Fatalf("collection still owns %d agents", h.agents.Len())
	}
}

func TestSkirmishRunsWithoutFaults(t *testing.T) {
	spec, err := prefabs.LoadScenario("skirmish")
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	h := newHarness(t, spec, prefabs.LoadScript)

	for tick := 0; tick < 300; tick++ {
		h.w.Update()
	}
	if h.agents.Faults() != 0 {
		t.Fatalf("agent faults: %s", h.logs.String())
	}
	for _, a := range h.agents.Agents() {
		if a.Flying() {
			t.Fatalf("agent %d flying at %v", a.ID(), a.Body().Position())
		}
	}
	if len(h.agentEvents(npc.EventWaypointReached)) == 0 {
		t.Fatalf("no agent reached a waypoint in 300 ticks")
	}
}

func TestPipelineReload(t *testing.T) {
	loads := 0
	loader := func(name string) ([]byte, error) {
		loads++
		return []byte(testSquadScript), nil
	}
	h, _, _ := newSquadWorld(t, "script", loader)
	h.w.Update()
	if loads != 1 {
		t.Fatalf("loads = %d, want 1", loads)
	}

	cases := []struct {
		name    string
		change  prefabs.Change
		wantErr error
		check   func(t *testing.T)
	}{
		{
			name:   "npc_config",
			change: prefabs.Change{Path: "prefabs/" + prefabs.NPCConfigFile, Kind: prefabs.ChangeSpec},
			check: func(t *testing.T) {
				// the shipped npc.yaml snaps waypoints, the defaults do not
				for name, a := range h.scenario.Agents {
					if !a.Config().SnapToSurface {
						t.Fatalf("agent %s kept the old config", name)
					}
				}
			},
		},
		{
			name:   "script",
			change: prefabs.Change{Path: "prefabs/scripts/test.tengo", Kind: prefabs.ChangeScript},
			check: func(t *testing.T) {
				h.w.Update()
				if loads != 2 {
					t.Fatalf("loads = %d, want a recompile", loads)
				}
			},
		},
		{
			name:    "scenario",
			change:  prefabs.Change{Path: "prefabs/scenarios/skirmish.yaml", Kind: prefabs.ChangeSpec},
			wantErr: ErrRestartRequired,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := h.pipeline.Reload(c.change)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("Reload = %v, want %v", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Reload: %v", err)
			}
			c.check(t)
		})
	}
}

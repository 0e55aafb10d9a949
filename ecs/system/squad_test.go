package system

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

func squadSpec(order string) prefabs.ScenarioSpec {
	spec := flatSpec()
	spec.Characters = []prefabs.CharacterSpec{{Name: "leader", Owner: 1, Position: prefabs.Vec3Spec{50, 0, 50}}}
	spec.Agents = []prefabs.AgentSpec{
		{Name: "a", Owner: 1, Position: prefabs.Vec3Spec{10, 0, 10}},
		{Name: "b", Owner: 1, Position: prefabs.Vec3Spec{14, 0, 10}},
	}
	sq := prefabs.SquadSpec{
		Name:    "squad",
		Order:   order,
		Anchor:  prefabs.Vec3Spec{40, 0, 40},
		Target:  prefabs.Vec3Spec{70, 0, 30},
		Members: []string{"a", "b"},
	}
	switch order {
	case "patrol":
		sq.Patrol = []prefabs.Vec3Spec{{0, 0, 0}, {20, 0, 0}}
	case "follow":
		sq.Follow = "leader"
	case "script":
		sq.Script = "test"
	}
	spec.Squads = []prefabs.SquadSpec{sq}
	return spec
}

func newSquadWorld(t *testing.T, order string, loader ScriptLoader) (*harness, *SquadSystem, *component.Squad) {
	t.Helper()
	h := newHarness(t, squadSpec(order), loader)
	sq, ok := ecs.Get(h.w, h.scenario.Squads["squad"], component.SquadComponent.Kind())
	if !ok {
		t.Fatalf("squad component missing")
	}
	return h, h.pipeline.Squads, sq
}

func assertGoal(t *testing.T, a *npc.Agent, x, z float64) {
	t.Helper()
	wps := movementWaypoints(a)
	if len(wps) != 1 {
		t.Fatalf("agent %d has %d movement waypoints, want 1", a.ID(), len(wps))
	}
	p := wps[0].Position
	if math.Abs(p.X()-x) > 1e-6 || math.Abs(p.Z()-z) > 1e-6 {
		t.Fatalf("goal = %v, want x=%v z=%v", p, x, z)
	}
}

func TestSquadOrders(t *testing.T) {
	cases := []struct {
		order string
		wantA [2]float64
		wantB [2]float64
	}{
		{"patrol", [2]float64{40, 40}, [2]float64{40, 40}},
		{"guard", [2]float64{40, 40}, [2]float64{40, 40}},
		{"attack", [2]float64{70, 30}, [2]float64{70, 30}},
		{"follow", [2]float64{47, 47}, [2]float64{50, 47}},
	}
	for _, c := range cases {
		t.Run(c.order, func(t *testing.T) {
			h, squads, _ := newSquadWorld(t, c.order, nil)
			squads.Update(h.w)
			assertGoal(t, h.scenario.Agents["a"], c.wantA[0], c.wantA[1])
			assertGoal(t, h.scenario.Agents["b"], c.wantB[0], c.wantB[1])

			// a second pass must not stack waypoints
			squads.Update(h.w)
			assertGoal(t, h.scenario.Agents["a"], c.wantA[0], c.wantA[1])
		})
	}
}

func TestSquadPatrolAdvances(t *testing.T) {
	h, squads, _ := newSquadWorld(t, "patrol", nil)
	a := h.scenario.Agents["a"]
	squads.Update(h.w)
	assertGoal(t, a, 40, 40)

	a.ClearWaypoints()
	squads.Update(h.w)
	assertGoal(t, a, 60, 40)

	a.ClearWaypoints()
	squads.Update(h.w)
	assertGoal(t, a, 40, 40)
}

func TestSquadFollowTracksLeader(t *testing.T) {
	h, squads, _ := newSquadWorld(t, "follow", nil)
	a := h.scenario.Agents["a"]
	leader, _ := ecs.Get(h.w, h.scenario.Entities["leader"], component.TransformComponent.Kind())

	squads.Update(h.w)
	assertGoal(t, a, 47, 47)

	leader.Position = leader.Position.Add(mgl64.Vec3{1, 0, 0})
	squads.Update(h.w)
	assertGoal(t, a, 47, 47)

	leader.Position = leader.Position.Add(mgl64.Vec3{5, 0, 0})
	squads.Update(h.w)
	assertGoal(t, a, 53, 47)

	if !a.WalkFast() {
		t.Fatalf("followers should walk fast")
	}
}

func TestSquadOrderChangeClearsMovementKeepsEnemy(t *testing.T) {
	h, squads, sq := newSquadWorld(t, "patrol", nil)
	a := h.scenario.Agents["a"]
	leader := h.scenario.Entities["leader"]
	squads.Update(h.w)
	a.SetActiveEnemy(leader.NPC())

	sq.Order = component.OrderAttack
	squads.Update(h.w)

	head, ok := a.CurrentWaypoint()
	if !ok || !head.Enemy {
		t.Fatalf("enemy waypoint should stay at the head, got %+v", head)
	}
	assertGoal(t, a, 70, 30)
	if sq.AppliedOrder != component.OrderAttack {
		t.Fatalf("applied order = %v", sq.AppliedOrder)
	}
}

func TestSquadDropsRemovedMembers(t *testing.T) {
	h, squads, sq := newSquadWorld(t, "guard", nil)
	h.agents.Remove(h.scenario.Agents["b"].ID())

	squads.Update(h.w)
	if len(sq.Members) != 1 || sq.Members[0] != h.scenario.Agents["a"].ID() {
		t.Fatalf("members = %v", sq.Members)
	}
}

const testSquadScript = `
start := func(engine, state) {
	state.runs = 0
}

update := func(engine, state) {
	state.runs += 1
	a := engine.anchor()
	for i := 0; i < engine.agents(); i++ {
		if engine.waypoint_count(i) == 0 {
			engine.add_waypoint(i, a[0] + 10 * i, a[1], a[2] + state.runs)
		}
	}
}
`

func TestSquadScriptOrder(t *testing.T) {
	loads := 0
	loader := func(name string) ([]byte, error) {
		loads++
		if name != "test" {
			return nil, errors.New("unknown script")
		}
		return []byte(testSquadScript), nil
	}
	h, squads, _ := newSquadWorld(t, "script", loader)

	squads.Update(h.w)
	assertGoal(t, h.scenario.Agents["a"], 40, 41)
	assertGoal(t, h.scenario.Agents["b"], 50, 41)

	squads.Update(h.w)
	if loads != 1 {
		t.Fatalf("script loaded %d times, want 1", loads)
	}

	squads.ReloadScripts()
	h.scenario.Agents["a"].ClearWaypoints()
	squads.Update(h.w)
	if loads != 2 {
		t.Fatalf("reload should recompile, loads=%d", loads)
	}
	// state restarts with the new runtime
	assertGoal(t, h.scenario.Agents["a"], 40, 41)
}

func TestSquadBrokenScriptIsDisabled(t *testing.T) {
	loads := 0
	loader := func(name string) ([]byte, error) {
		loads++
		return []byte("update := func(engine, state) {"), nil
	}
	h, squads, _ := newSquadWorld(t, "script", loader)

	for i := 0; i < 3; i++ {
		squads.Update(h.w)
	}
	if loads != 1 {
		t.Fatalf("broken script retried %d times", loads)
	}
	if n := h.scenario.Agents["a"].WaypointCount(); n != 0 {
		t.Fatalf("broken script produced %d waypoints", n)
	}
}

package system

import (
	"fmt"
	"log"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

type squadScript struct {
	name      string
	compiled  *tengo.Compiled
	stateData *tengo.Map
	started   bool
	broken    bool
}

const squadLifecycleDispatchScript = `
if __phase == "start" {
	start(__engine, __state)
} else if __phase == "update" {
	update(__engine, __state)
}
`

func (s *SquadSystem) runScript(w *ecs.World, e ecs.Entity, sq *component.Squad, members []*npc.Agent) {
	rt, err := s.getScript(e, sq.Script)
	if err != nil {
		log.Printf("squad: %s load script %q error: %v", sq.Name, sq.Script, err)
		s.scripts[e] = &squadScript{name: sq.Script, broken: true}
		return
	}
	if rt.broken {
		return
	}

	engine := buildSquadScriptEngine(w, sq, members)
	if !rt.started {
		rt.started = true
		if err := rt.runPhase("start", engine); err != nil {
			log.Printf("squad: %s script start error: %v", sq.Name, err)
			rt.broken = true
			return
		}
	}
	if err := rt.runPhase("update", engine); err != nil {
		log.Printf("squad: %s script update error: %v", sq.Name, err)
		rt.broken = true
	}
}

func (s *SquadSystem) getScript(e ecs.Entity, name string) (*squadScript, error) {
	if rt, ok := s.scripts[e]; ok && rt != nil && rt.name == name {
		return rt, nil
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("no script set")
	}
	if s.loadScript == nil {
		return nil, fmt.Errorf("no script loader")
	}

	scriptBytes, err := s.loadScript(name)
	if err != nil {
		return nil, err
	}

	src := string(scriptBytes) + "\n" + squadLifecycleDispatchScript
	script := tengo.NewScript([]byte(src))
	_ = script.Add("__phase", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})

	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, err
	}

	rt := &squadScript{
		name:      name,
		compiled:  compiled,
		stateData: &tengo.Map{Value: map[string]tengo.Object{}},
	}
	s.scripts[e] = rt
	return rt, nil
}

func (rt *squadScript) runPhase(phase string, engine *tengo.ImmutableMap) error {
	if rt == nil || rt.compiled == nil {
		return fmt.Errorf("nil script runtime")
	}
	if err := rt.compiled.Set("__phase", phase); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.stateData); err != nil {
		return err
	}
	return rt.compiled.Run()
}

func vecObject(v mgl64.Vec3) tengo.Object {
	return &tengo.Array{Value: []tengo.Object{
		&tengo.Float{Value: v.X()},
		&tengo.Float{Value: v.Y()},
		&tengo.Float{Value: v.Z()},
	}}
}

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

// buildSquadScriptEngine exposes the squad to a script. Agents are
// addressed by their roster index.
func buildSquadScriptEngine(w *ecs.World, sq *component.Squad, members []*npc.Agent) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	member := func(args []tengo.Object) (*npc.Agent, bool) {
		if len(args) < 1 {
			return nil, false
		}
		i, ok := tengo.ToInt(args[0])
		if !ok || i < 0 || i >= len(members) {
			return nil, false
		}
		return members[i], true
	}

	values["agents"] = &tengo.UserFunction{Name: "agents", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(len(members))}, nil
	}}

	values["tick"] = &tengo.UserFunction{Name: "tick", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Int{Value: int64(w.Tick())}, nil
	}}

	values["anchor"] = &tengo.UserFunction{Name: "anchor", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vecObject(sq.Anchor), nil
	}}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a, ok := member(args)
		if !ok || !a.Valid() {
			return tengo.UndefinedValue, nil
		}
		return vecObject(a.Body().Position()), nil
	}}

	values["waypoint_count"] = &tengo.UserFunction{Name: "waypoint_count", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a, ok := member(args)
		if !ok {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(a.WaypointCount())}, nil
	}}

	values["has_enemy"] = &tengo.UserFunction{Name: "has_enemy", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a, ok := member(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		_, engaged := a.ActiveEnemy()
		return boolObject(engaged), nil
	}}

	values["add_waypoint"] = &tengo.UserFunction{Name: "add_waypoint", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a, ok := member(args)
		if !ok || len(args) < 4 {
			return tengo.FalseValue, nil
		}
		var p mgl64.Vec3
		for i := 0; i < 3; i++ {
			f, ok := tengo.ToFloat64(args[i+1])
			if !ok {
				return tengo.FalseValue, nil
			}
			p[i] = f
		}
		return boolObject(a.AddWaypoint(p) == nil), nil
	}}

	values["clear_conserving_enemy"] = &tengo.UserFunction{Name: "clear_conserving_enemy", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a, ok := member(args)
		if !ok {
			return tengo.FalseValue, nil
		}
		a.ClearWaypointsConservingEnemy()
		return tengo.TrueValue, nil
	}}

	values["set_walk_fast"] = &tengo.UserFunction{Name: "set_walk_fast", Value: func(args ...tengo.Object) (tengo.Object, error) {
		a, ok := member(args)
		if !ok || len(args) < 2 {
			return tengo.FalseValue, nil
		}
		a.SetWalkFast(!args[1].IsFalsy())
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

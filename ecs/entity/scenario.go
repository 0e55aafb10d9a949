package entity

import (
	"fmt"

	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

// Scenario indexes what BuildScenario created by name.
type Scenario struct {
	Name     string
	Entities map[string]ecs.Entity
	Agents   map[string]*npc.Agent
	Squads   map[string]ecs.Entity
}

// BuildScenario populates an empty world from spec. Agents go to agents.
func BuildScenario(w *ecs.World, agents *npc.Collection, spec prefabs.ScenarioSpec) (*Scenario, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	sc := &Scenario{
		Name:     spec.Name,
		Entities: make(map[string]ecs.Entity),
		Agents:   make(map[string]*npc.Agent),
		Squads:   make(map[string]ecs.Entity),
	}
	name := func(n string, e ecs.Entity) {
		if n != "" {
			sc.Entities[n] = e
		}
	}

	NewPhysics(w, spec)

	factions := w.Factions()
	for _, f := range spec.Factions {
		for _, owner := range f.Owners {
			factions.Join(npc.OwnerID(owner), f.Name)
		}
	}
	for _, war := range spec.Wars {
		factions.DeclareWar(war[0], war[1])
	}

	for _, o := range spec.Obstacles {
		e, err := NewObstacle(w, o)
		if err != nil {
			return nil, err
		}
		name(o.Name, e)
	}
	for _, c := range spec.Characters {
		e, err := NewCharacter(w, c)
		if err != nil {
			return nil, err
		}
		name(c.Name, e)
	}
	for _, s := range spec.Structures {
		e, err := NewStructure(w, s)
		if err != nil {
			return nil, err
		}
		name(s.Name, e)
	}
	built := make([]*npc.Agent, 0, len(spec.Agents))
	for _, a := range spec.Agents {
		agent, e, err := NewAgent(w, agents, a)
		if err != nil {
			return nil, err
		}
		name(a.Name, e)
		if a.Name != "" {
			sc.Agents[a.Name] = agent
		}
		built = append(built, agent)
	}

	for i, a := range spec.Agents {
		if a.Enemy != "" {
			built[i].SetActiveEnemy(sc.Entities[a.Enemy].NPC())
		}
	}

	for _, sq := range spec.Squads {
		members := make([]uint64, 0, len(sq.Members))
		for _, m := range sq.Members {
			members = append(members, sc.Agents[m].ID())
		}
		var follow npc.EntityID
		if sq.Follow != "" {
			follow = sc.Entities[sq.Follow].NPC()
		}
		e, err := NewSquad(w, sq, members, follow)
		if err != nil {
			return nil, err
		}
		sc.Squads[sq.Name] = e
	}
	return sc, nil
}

// LoadScenario loads a named scenario and builds it.
func LoadScenario(w *ecs.World, agents *npc.Collection, name string) (*Scenario, error) {
	spec, err := prefabs.LoadScenario(name)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return BuildScenario(w, agents, spec)
}

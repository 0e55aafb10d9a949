package system

import (
	"errors"
	"fmt"

	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

// ErrRestartRequired is returned by Reload for edits that only take effect
// when the scenario is rebuilt.
var ErrRestartRequired = errors.New("scenario change needs a restart")

// Pipeline holds the sandbox systems in their fixed update order: orders,
// agents, physics, tracers, expiry, cleanup, rendering, event drain.
type Pipeline struct {
	Squads  *SquadSystem
	NPC     *NPCSystem
	Physics *PhysicsSystem
	Tracers *TracerSystem
	TTL     *TTLSystem
	Cleanup *CleanupSystem
	Render  *RenderSystem
	Events  *EventLogSystem
}

// AddPipeline creates the sandbox systems and registers them with w.
func AddPipeline(w *ecs.World, agents *npc.Collection, loadScript ScriptLoader, sinks ...EventSink) *Pipeline {
	p := &Pipeline{
		Squads:  NewSquadSystem(agents, loadScript),
		NPC:     NewNPCSystem(agents),
		Physics: NewPhysicsSystem(),
		Tracers: NewTracerSystem(),
		TTL:     NewTTLSystem(),
		Cleanup: NewCleanupSystem(),
		Render:  NewRenderSystem(agents),
		Events:  NewEventLogSystem(sinks...),
	}
	for _, s := range []ecs.System{p.Squads, p.NPC, p.Physics, p.Tracers, p.TTL, p.Cleanup, p.Render, p.Events} {
		w.AddSystem(s)
	}
	return p
}

// Reload applies one hot-reload change. Tuning edits are pushed to every
// agent, script edits drop the compiled squad scripts.
func (p *Pipeline) Reload(change prefabs.Change) error {
	switch {
	case change.IsNPCConfig():
		cfg, err := prefabs.LoadNPCConfig(prefabs.NPCConfigFile)
		if err != nil {
			return err
		}
		if err := p.NPC.Agents().ApplyConfig(cfg); err != nil {
			return fmt.Errorf("apply %s: %w", prefabs.NPCConfigFile, err)
		}
		return nil
	case change.Kind == prefabs.ChangeScript:
		p.Squads.ReloadScripts()
		return nil
	case change.Kind == prefabs.ChangeSpec:
		return fmt.Errorf("%s: %w", change.Path, ErrRestartRequired)
	default:
		return nil
	}
}

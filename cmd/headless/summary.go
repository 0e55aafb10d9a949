package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/npc"
)

// summary counts what happened during a run.
type summary struct {
	agentEvents map[npc.EventKind]int
	destroyed   map[npc.Kind]int
	damage      float64
	hits        int
	blocksLost  int
	lastTick    int
}

func newSummary() *summary {
	return &summary{
		agentEvents: make(map[npc.EventKind]int),
		destroyed:   make(map[npc.Kind]int),
	}
}

func (s *summary) HandleEvent(evt ecs.Event) {
	if evt.Tick > s.lastTick {
		s.lastTick = evt.Tick
	}
	switch data := evt.Data.(type) {
	case npc.Event:
		s.agentEvents[data.Kind]++
	case ecs.DamageEvent:
		s.hits++
		s.damage += data.Damage.Amount
		if data.BlockDestroyed {
			s.blocksLost++
		}
	case ecs.DestroyEvent:
		s.destroyed[data.Kind]++
	}
}

func (s *summary) print(out io.Writer, scenario string, ticks int, agents *npc.Collection) {
	fmt.Fprintf(out, "=== %s: %d ticks ===\n", scenario, ticks)
	fmt.Fprintf(out, "agents alive=%d faults=%d\n", agents.Len(), agents.Faults())

	kinds := make([]npc.EventKind, 0, len(s.agentEvents))
	for k := range s.agentEvents {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-18s %d\n", k, s.agentEvents[k])
	}

	fmt.Fprintf(out, "hits=%d damage=%.0f blocks_lost=%d\n", s.hits, s.damage, s.blocksLost)
	destroyed := make([]npc.Kind, 0, len(s.destroyed))
	for k := range s.destroyed {
		destroyed = append(destroyed, k)
	}
	sort.Slice(destroyed, func(i, j int) bool { return destroyed[i] < destroyed[j] })
	for _, k := range destroyed {
		fmt.Fprintf(out, "  destroyed %-10s %d\n", k, s.destroyed[k])
	}
}

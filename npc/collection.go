package npc

import (
	"errors"
	"log"
	"math/rand/v2"
)

var ErrNilAgent = errors.New("npc: nil agent")

// Collection owns the live agents and ticks them in insertion order.
type Collection struct {
	agents map[uint64]*Agent
	order  []uint64
	cfg    Config
	logger *log.Logger
	faults int
}

// NewCollection returns an empty collection. A nil logger logs through the
// standard logger.
func NewCollection(cfg Config, logger *log.Logger) *Collection {
	if logger == nil {
		logger = log.Default()
	}
	return &Collection{
		agents: make(map[uint64]*Agent),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *Collection) Config() Config { return c.cfg }

// Spawn binds a new agent to body using the collection's tuning and takes
// ownership of it.
func (c *Collection) Spawn(body Body, animator Animator) *Agent {
	a := NewAgent(body, animator, c.cfg)
	c.insert(a)
	return a
}

// Add takes ownership of a. The agent is re-keyed if its id collides.
func (c *Collection) Add(a *Agent) error {
	if a == nil {
		return ErrNilAgent
	}
	c.insert(a)
	return nil
}

func (c *Collection) insert(a *Agent) {
	if existing, ok := c.agents[a.id]; ok && existing == a {
		return
	}
	for {
		if _, taken := c.agents[a.id]; !taken && a.id != 0 {
			break
		}
		a.id = rand.Uint64()
	}
	c.agents[a.id] = a
	c.order = append(c.order, a.id)
}

func (c *Collection) Get(id uint64) (*Agent, bool) {
	a, ok := c.agents[id]
	return a, ok
}

func (c *Collection) Remove(id uint64) bool {
	if _, ok := c.agents[id]; !ok {
		return false
	}
	delete(c.agents, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *Collection) Len() int { return len(c.agents) }

// Agents returns the live agents in insertion order.
func (c *Collection) Agents() []*Agent {
	out := make([]*Agent, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.agents[id])
	}
	return out
}

// Faults counts agent updates that failed since the collection was made.
func (c *Collection) Faults() int { return c.faults }

// Purge drops agents whose body is no longer valid and returns their ids.
func (c *Collection) Purge() []uint64 {
	var removed []uint64
	kept := c.order[:0]
	for _, id := range c.order {
		if c.agents[id].Valid() {
			kept = append(kept, id)
			continue
		}
		delete(c.agents, id)
		removed = append(removed, id)
	}
	c.order = kept
	return removed
}

// Update purges invalid agents then ticks the rest once. A failing agent
// is logged and skipped; the others still update.
func (c *Collection) Update(env Env) (removed []uint64) {
	removed = c.Purge()
	for _, id := range c.order {
		a := c.agents[id]
		if err := a.Update(env); err != nil {
			c.faults++
			c.logger.Printf("npc: agent=%d update failed: %v", id, err)
		}
	}
	return removed
}

// ApplyConfig validates cfg and pushes it to every agent.
func (c *Collection) ApplyConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	for _, id := range c.order {
		c.agents[id].SetConfig(cfg)
	}
	return nil
}

package component

// NPC links an entity to the agent that drives it.
type NPC struct {
	AgentID uint64
	Name    string
}

var NPCComponent = NewComponent[NPC]()

package component

import "github.com/milk9111/groundnpc/npc"

// Class tells agents what an entity is when they see it.
type Class struct {
	Kind npc.Kind
	Name string
}

var ClassComponent = NewComponent[Class]()

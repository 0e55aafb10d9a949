package component

import "github.com/milk9111/groundnpc/npc"

// Gait is what the leg animation would consume: the current movement mode
// and a cycle phase in [0, 1).
type Gait struct {
	Mode  npc.Mode
	Phase float64
}

var GaitComponent = NewComponent[Gait]()

package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/npc"
)

type SquadOrder string

const (
	OrderPatrol SquadOrder = "patrol"
	OrderAttack SquadOrder = "attack"
	OrderGuard  SquadOrder = "guard"
	OrderFollow SquadOrder = "follow"
	OrderScript SquadOrder = "script"
)

// Squad groups agents under one order. Patrol points are relative to
// Anchor; Target is absolute.
type Squad struct {
	Name    string
	Order   SquadOrder
	Anchor  mgl64.Vec3
	Patrol  []mgl64.Vec3
	Target  mgl64.Vec3
	Follow  npc.EntityID
	Script  string
	Members []uint64

	// Progress is the patrol index per member agent.
	Progress map[uint64]int

	// AppliedOrder is the order the members were last set up for.
	AppliedOrder SquadOrder
}

var SquadComponent = NewComponent[Squad]()

package ecs

import (
	"strconv"

	"github.com/milk9111/groundnpc/npc"
)

// Entity packs a slot id in the low 32 bits and its generation above. The
// generation makes a stale handle fail IsAlive after its slot is reused.
type Entity uint64

type entityID uint32
type generation uint32

const entityIDBits = 32

func makeEntity(id entityID, gen generation) Entity {
	return Entity(uint64(gen)<<entityIDBits | uint64(id))
}

func (e Entity) id() entityID {
	return entityID(uint32(e))
}

func (e Entity) generation() generation {
	return generation(uint32(uint64(e) >> entityIDBits))
}

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

func (e Entity) Valid() bool {
	return e > 0
}

// NPC converts the handle to the id agents use for weak references.
func (e Entity) NPC() npc.EntityID {
	return npc.EntityID(e)
}

// FromNPC converts an agent-side reference back to a handle.
func FromNPC(id npc.EntityID) Entity {
	return Entity(id)
}

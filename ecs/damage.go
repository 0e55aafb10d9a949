package ecs

import (
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

const blockPointEpsilon = 0.05

// Damager applies shot damage to world entities and pushes a DamageEvent
// for every application that changed state.
type Damager struct {
	w *World
}

var _ npc.Damager = Damager{}

func NewDamager(w *World) Damager {
	return Damager{w: w}
}

func (d Damager) ApplyDamage(dmg npc.Damage) bool {
	e := FromNPC(dmg.Target)
	if !d.w.IsAlive(e) || Has(d.w, e, component.MarkedForRemovalComponent.Kind()) || dmg.Amount <= 0 {
		return false
	}
	if st, ok := Get(d.w, e, component.StructureComponent.Kind()); ok {
		return d.damageStructure(e, st, dmg)
	}

	body, ok := Get(d.w, e, component.PhysicsBodyComponent.Kind())
	if !ok || body.Body == nil {
		return false
	}
	health, ok := Get(d.w, e, component.HealthComponent.Kind())
	if !ok {
		return false
	}
	health.Current -= dmg.Amount
	destroyed := health.Current <= 0
	if destroyed {
		health.Current = 0
		_ = Add(d.w, e, component.MarkedForRemovalComponent.Kind(), &component.MarkedForRemoval{})
	}
	d.w.Events().Push(Event{
		Type: EventTypeDamage,
		Tick: d.w.Tick(),
		Data: DamageEvent{Damage: dmg, Destroyed: destroyed},
	})
	return true
}

func (d Damager) damageStructure(e Entity, st *component.Structure, dmg npc.Damage) bool {
	if st.Indestructible {
		return false
	}
	i := int(dmg.Component)
	if i < 0 || i >= len(st.Blocks) || !st.Blocks[i].Alive() {
		i = -1
		for j, b := range st.Blocks {
			if b.Alive() && b.Contains(dmg.Point, blockPointEpsilon) {
				i = j
				break
			}
		}
	}
	if i < 0 {
		return false
	}

	block := &st.Blocks[i]
	block.Integrity -= dmg.Amount
	blockDestroyed := block.Integrity <= 0
	if blockDestroyed {
		block.Integrity = 0
		d.w.PhysicsWorld().RemoveShape(block.Shape)
		block.Shape = nil
	}
	destroyed := st.LiveBlocks() == 0
	if destroyed {
		_ = Add(d.w, e, component.MarkedForRemovalComponent.Kind(), &component.MarkedForRemoval{})
	}

	dmg.Component = npc.ComponentID(i)
	d.w.Events().Push(Event{
		Type: EventTypeDamage,
		Tick: d.w.Tick(),
		Data: DamageEvent{Damage: dmg, Destroyed: destroyed, BlockDestroyed: blockDestroyed},
	})
	return true
}

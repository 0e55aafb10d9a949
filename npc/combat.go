package npc

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/groundnpc/common"
)

const cooldownTolerance = 1e-9

// aim keeps sustained fire on one sub-component of a structure until line
// of sight to it has failed too many times in a row.
type aim struct {
	component ComponentID
	valid     bool
	failures  int
}

func (a *aim) reset() {
	*a = aim{component: NoComponent}
}

// losFailed records one blocked shot and drops the component once the
// retry limit is reached.
func (a *aim) losFailed(limit int) {
	a.failures++
	if a.failures >= limit {
		a.reset()
	}
}

type combat struct {
	enemy    EntityID
	aim      aim
	cooldown float64
	// blocked is set when the last shot attempt had no line of sight.
	blocked bool
	rng     *rand.Rand
}

func newCombat(seed uint64) combat {
	c := combat{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	c.aim.reset()
	return c
}

func (c *combat) hasEnemy() bool {
	return c.enemy != 0
}

// setEnemy switches the active enemy. The aim is cleared on every change.
func (c *combat) setEnemy(id EntityID) {
	if c.enemy == id {
		return
	}
	c.enemy = id
	c.aim.reset()
	c.blocked = false
}

func (c *combat) clearEnemy() {
	c.setEnemy(0)
}

// scan returns the nearest hostile targetable entity within radius.
func scan(space Space, factions Factions, self EntityID, owner OwnerID, pos mgl64.Vec3, radius float64) (Entity, bool) {
	if space == nil || factions == nil {
		return Entity{}, false
	}
	found := space.NearbyEntities(pos, radius, func(e Entity) bool {
		return e.ID != self && e.Kind.Targetable() && factions.IsHostile(owner, e.Owner)
	})
	for _, e := range found {
		if common.Distance(e.Center, pos) <= radius {
			return e, true
		}
	}
	return Entity{}, false
}

// aimPoint resolves where to shoot at the enemy: the bounding center for a
// single body, or the remembered sub-component of a structure.
func (c *combat) aimPoint(space Space, enemy Entity) (mgl64.Vec3, ComponentID) {
	if enemy.Kind != KindStructure {
		return enemy.Center, NoComponent
	}
	if c.aim.valid {
		if comp, ok := space.Component(enemy.ID, c.aim.component); ok {
			return comp.Position, comp.ID
		}
		c.aim.reset()
	}
	comps := space.Components(enemy.ID)
	if len(comps) == 0 {
		return enemy.Center, NoComponent
	}
	pick := comps[c.rng.IntN(len(comps))]
	c.aim.component = pick.ID
	c.aim.valid = true
	return pick.Position, pick.ID
}

type shotOutcome int

const (
	shotBlocked shotOutcome = iota
	shotNoDamage
	shotHit
)

// fire casts from the muzzle to the target point. Only a first hit on the
// enemy itself counts; anything else is a blocked line of sight.
func (c *combat) fire(env Env, self EntityID, muzzle, target mgl64.Vec3, enemy Entity, amount float64) (shotOutcome, Hit) {
	hit, ok := env.Space.CastRay(muzzle, target, skipSelf(self))
	if !ok || hit.Entity != enemy.ID {
		return shotBlocked, hit
	}
	if env.Damager == nil {
		return shotNoDamage, hit
	}
	applied := env.Damager.ApplyDamage(Damage{
		Source:    self,
		Target:    enemy.ID,
		Component: hit.Component,
		Amount:    amount,
		Point:     hit.Position,
		Normal:    hit.Normal,
	})
	if !applied {
		return shotNoDamage, hit
	}
	return shotHit, hit
}

// ready reports whether the cooldown allows a shot attempt.
func (c *combat) ready(cfg *Config) bool {
	return c.cooldown+cooldownTolerance >= cfg.attackPeriod()
}

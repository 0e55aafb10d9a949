package npc

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/groundnpc/common"
)

// UpdateError wraps a fault raised while updating one agent.
type UpdateError struct {
	AgentID uint64
	Tick    int
	Cause   error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("npc: agent %d tick %d: %v", e.AgentID, e.Tick, e.Cause)
}

func (e *UpdateError) Unwrap() error { return e.Cause }

// Agent is the navigation and combat controller of one ground NPC. It is
// driven by a single goroutine; none of its methods are safe for
// concurrent use.
type Agent struct {
	id       uint64
	body     Body
	animator Animator
	cfg      Config

	queue  Queue
	steer  steering
	combat combat
	loco   Locomotion
	mode   Mode

	target    mgl64.Vec3
	hasTarget bool
	// holding is set while an enemy head is within reach; the agent fights
	// from where it stands instead of walking onto the enemy.
	holding bool

	tick       int
	stuck      int
	lastPos    mgl64.Vec3
	hasLastPos bool
}

// NewAgent binds a controller to body. A nil animator is allowed.
func NewAgent(body Body, animator Animator, cfg Config) *Agent {
	if animator == nil {
		animator = nopAnimator{}
	}
	id := rand.Uint64()
	return &Agent{
		id:       id,
		body:     body,
		animator: animator,
		cfg:      cfg,
		combat:   newCombat(id),
		loco:     newLocomotion(cfg),
		mode:     ModeStanding,
	}
}

func (a *Agent) ID() uint64 { return a.id }

func (a *Agent) Body() Body { return a.body }

// Valid reports whether the agent's body is still usable. It is derived
// every call, never cached.
func (a *Agent) Valid() bool {
	return a.body != nil && a.body.Valid()
}

func (a *Agent) Config() Config { return a.cfg }

// SetConfig swaps the tuning. Cached throttles restart on the next tick.
func (a *Agent) SetConfig(cfg Config) {
	fast := a.loco.Fast
	a.cfg = cfg
	a.loco = newLocomotion(cfg)
	a.loco.Fast = fast
	a.steer.reset()
	a.stuck = 0
}

// AddWaypoint appends a fixed goal.
func (a *Agent) AddWaypoint(p mgl64.Vec3) error {
	var self mgl64.Vec3
	if a.body != nil {
		self = a.body.Position()
	}
	return a.queue.AddPosition(p, self, a.cfg.MinWaypointClearance)
}

// AddWaypointEntity appends a goal that follows id.
func (a *Agent) AddWaypointEntity(id EntityID) error {
	return a.queue.AddEntity(id)
}

// ClearWaypoints drops every waypoint, including an engagement in progress.
func (a *Agent) ClearWaypoints() {
	a.queue.Clear()
	a.combat.clearEnemy()
	a.steer.invalidateSweep()
	a.stuck = 0
}

// ClearWaypointsConservingEnemy drops movement orders but keeps an
// enemy-tracking head.
func (a *Agent) ClearWaypointsConservingEnemy() {
	a.queue.ClearConservingEnemy()
	a.steer.invalidateSweep()
	a.stuck = 0
}

func (a *Agent) CurrentWaypoint() (Waypoint, bool) {
	return a.queue.Front()
}

func (a *Agent) WaypointCount() int {
	return a.queue.Len()
}

// Waypoints returns a copy of the queue, head first.
func (a *Agent) Waypoints() []Waypoint {
	return a.queue.Items()
}

// SetActiveEnemy engages id and puts an enemy-tracking waypoint at the
// head. Zero disengages.
func (a *Agent) SetActiveEnemy(id EntityID) {
	if a.combat.enemy == id {
		return
	}
	if a.combat.hasEnemy() {
		a.queue.RemoveEnemy(a.combat.enemy)
	}
	a.combat.setEnemy(id)
	if id != 0 {
		a.queue.PushFrontEnemy(id)
	}
	a.steer.invalidateSweep()
	a.stuck = 0
}

func (a *Agent) ActiveEnemy() (EntityID, bool) {
	return a.combat.enemy, a.combat.hasEnemy()
}

func (a *Agent) SetWalkFast(fast bool) { a.loco.Fast = fast }

func (a *Agent) WalkFast() bool { return a.loco.Fast }

func (a *Agent) Mode() Mode { return a.mode }

// MovementTarget is the goal resolved from the queue head last tick.
func (a *Agent) MovementTarget() (mgl64.Vec3, bool) {
	return a.target, a.hasTarget
}

func (a *Agent) IntermediateTarget() (mgl64.Vec3, bool) {
	return a.steer.intermediate, a.steer.hasIntermediate && a.hasTarget && !a.holding
}

// Flying reports whether the last ground probe found nothing below.
func (a *Agent) Flying() bool {
	return a.steer.sampled && !a.steer.grounded
}

func (a *Agent) StuckTicks() int { return a.stuck }

// Update advances the agent by one tick. A panic inside the tick is
// recovered and returned as an *UpdateError; the agent keeps whatever
// state it had reached.
func (a *Agent) Update(env Env) (err error) {
	tick := a.tick
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = &UpdateError{AgentID: a.id, Tick: env.Tick, Cause: cause}
		}
	}()

	if !a.Valid() || env.Space == nil {
		return nil
	}
	a.tick++

	pos := a.body.Position()
	a.bookkeep(env, tick, pos)

	a.target, a.hasTarget = a.queue.Goal(env.Space, pos, a.cfg.RelevanceDistance)

	if !a.Valid() {
		return nil
	}
	prev := a.mode
	facing, engaged := a.updateCombat(env, pos)

	// Combat may have dropped the head.
	a.target, a.hasTarget = a.queue.Goal(env.Space, pos, a.cfg.RelevanceDistance)
	a.holding = a.hasTarget && a.enemyHead() && a.groundDistance(pos, a.target) <= a.cfg.ReachDistance

	if !a.Valid() {
		return nil
	}
	a.updateSteering(env, tick, facing, engaged)

	if a.mode != prev {
		a.emit(env, Event{Kind: EventModeChanged, Mode: a.mode})
	}
	a.animator.SetMovementMode(a.mode)
	return nil
}

func (a *Agent) emit(env Env, ev Event) {
	ev.Agent = a.id
	ev.Tick = env.Tick
	if common.IsZero(ev.Position) && a.body != nil {
		ev.Position = a.body.Position()
	}
	env.emit(ev)
}

// bookkeep purges stale waypoints, consumes a reached or stuck head and
// runs the acquisition scan.
func (a *Agent) bookkeep(env Env, tick int, pos mgl64.Vec3) {
	for _, w := range a.queue.Purge(env.Space, pos, a.cfg.RelevanceDistance) {
		if w.Enemy && w.Entity == a.combat.enemy {
			a.combat.clearEnemy()
			a.emit(env, Event{Kind: EventEnemyLost, Entity: w.Entity, Reason: "stale"})
		}
	}

	goal, ok := a.queue.Goal(env.Space, pos, a.cfg.RelevanceDistance)
	if ok {
		enemy := a.enemyHead()
		inReach := a.groundDistance(pos, goal) <= a.cfg.ReachDistance
		if a.hasLastPos {
			switch {
			case enemy && !a.combat.blocked && (inReach || a.mode == ModeAttacking):
				// Firing with a clear line of sight is progress.
				a.stuck = 0
			case common.Distance(pos, a.lastPos) < a.cfg.StuckEpsilon:
				a.stuck++
			default:
				a.stuck = 0
			}
		}
		switch {
		case inReach && !enemy:
			a.consume(env, pos, goal, EventWaypointReached)
		case a.stuck > a.cfg.StuckTicks:
			a.consume(env, pos, goal, EventWaypointStuck)
		}
	} else {
		a.stuck = 0
	}
	a.lastPos, a.hasLastPos = pos, true

	if !a.combat.hasEnemy() && tick%a.cfg.AcquireInterval == 0 {
		found, ok := scan(env.Space, env.Factions, a.body.ID(), a.body.Owner(), pos, a.cfg.AcquisitionRadius)
		if ok {
			a.SetActiveEnemy(found.ID)
			a.emit(env, Event{Kind: EventEnemyAcquired, Entity: found.ID, To: found.Center})
		}
	}
}

// enemyHead reports whether the head tracks the active enemy. Combat owns
// that entry: it is never consumed by reaching it.
func (a *Agent) enemyHead() bool {
	w, ok := a.queue.Front()
	return ok && w.Enemy && w.Entity == a.combat.enemy && a.combat.hasEnemy()
}

// groundDistance measures pos to goal across the gravity plane so goals
// authored at ground level are reachable by a body standing above them.
func (a *Agent) groundDistance(pos, goal mgl64.Vec3) float64 {
	return common.ProjectOnPlane(goal.Sub(pos), downOf(a.body)).Len()
}

// consume drops the head waypoint.
func (a *Agent) consume(env Env, pos, goal mgl64.Vec3, kind EventKind) {
	w, ok := a.queue.Advance()
	if !ok {
		return
	}
	a.stuck = 0
	a.steer.invalidateSweep()
	a.emit(env, Event{Kind: kind, Entity: w.Entity, To: goal})

	if w.Enemy && w.Entity == a.combat.enemy {
		a.combat.clearEnemy()
		a.emit(env, Event{Kind: EventEnemyLost, Entity: w.Entity, Reason: kind.String()})
	}
	if a.cfg.LoopWaypoints && !w.Tracked() {
		p := w.Position
		if a.cfg.SnapToSurface {
			p = surfacePoint(env.Space, p, a.body.Gravity(), a.cfg.SnapAbove, a.cfg.SnapBelow, skipSelfAndAgents(a.body.ID()))
		}
		if err := a.queue.AddPosition(p, pos, 0); err != nil {
			_ = a.queue.AddPosition(w.Position, pos, 0)
		}
	}
}

// updateCombat resolves the active enemy, picks the mode and attempts a
// shot. It returns the enemy center while engaged.
func (a *Agent) updateCombat(env Env, pos mgl64.Vec3) (mgl64.Vec3, bool) {
	idle := func() {
		if a.hasTarget {
			a.mode = ModeWalking
		} else {
			a.mode = ModeStanding
		}
	}
	if !a.combat.hasEnemy() {
		idle()
		return mgl64.Vec3{}, false
	}

	id := a.combat.enemy
	enemy, ok := env.Space.Entity(id)
	reason := "invalid"
	if ok && common.Distance(pos, enemy.Center) > a.cfg.dropRange() {
		ok, reason = false, "out_of_range"
	}
	if !ok {
		a.queue.RemoveEnemy(id)
		a.combat.clearEnemy()
		a.steer.invalidateSweep()
		a.emit(env, Event{Kind: EventEnemyLost, Entity: id, Reason: reason})
		a.target, a.hasTarget = a.queue.Goal(env.Space, pos, a.cfg.RelevanceDistance)
		idle()
		return mgl64.Vec3{}, false
	}

	period := a.cfg.attackPeriod()
	a.combat.cooldown = math.Min(a.combat.cooldown+a.cfg.tickSeconds(), period)

	if common.Distance(pos, enemy.Center) >= a.cfg.EngagementRange {
		idle()
		return enemy.Center, false
	}
	a.mode = ModeAttacking
	if a.combat.ready(&a.cfg) {
		a.shoot(env, pos, enemy)
	}
	return enemy.Center, true
}

func (a *Agent) muzzle(pos mgl64.Vec3) mgl64.Vec3 {
	return pos.Add(a.body.Up().Mul(a.cfg.MuzzleUp)).Add(a.body.Forward().Mul(a.cfg.MuzzleForward))
}

func (a *Agent) shoot(env Env, pos mgl64.Vec3, enemy Entity) {
	from := a.muzzle(pos)
	to, comp := a.combat.aimPoint(env.Space, enemy)
	outcome, hit := a.combat.fire(env, a.body.ID(), from, to, enemy, a.cfg.Damage)
	a.combat.blocked = outcome == shotBlocked
	switch outcome {
	case shotBlocked:
		if enemy.Kind == KindStructure {
			a.combat.aim.losFailed(a.cfg.LOSRetryLimit)
		}
	case shotNoDamage:
		a.combat.aim.failures = 0
		a.emit(env, Event{Kind: EventShotFired, Position: from, To: hit.Position, Entity: enemy.ID, Component: comp})
	case shotHit:
		a.combat.aim.failures = 0
		a.combat.cooldown = 0
		a.emit(env, Event{Kind: EventShotFired, Position: from, To: hit.Position, Entity: enemy.ID, Component: hit.Component, Damaged: true})
	}
}

// updateSteering samples the ground, orients the body and drives it toward
// the intermediate target.
func (a *Agent) updateSteering(env Env, tick int, facing mgl64.Vec3, engaged bool) {
	if a.steer.sampleGround(env.Space, a.body, &a.cfg, tick) {
		kind := EventFlying
		if a.steer.grounded {
			kind = EventGrounded
		}
		a.emit(env, Event{Kind: kind})
	}
	if !a.steer.grounded {
		return
	}

	moving := a.hasTarget && !a.holding
	var inter mgl64.Vec3
	if moving {
		inter = a.steer.steerTo(env.Space, a.body, a.target, &a.cfg, tick)
	} else {
		a.steer.invalidateSweep()
	}

	aimAt, hasAim := inter, moving
	switch {
	case engaged:
		aimAt, hasAim = facing, true
	case a.holding:
		aimAt, hasAim = a.target, true
	}
	a.steer.orient(a.body, &a.cfg, aimAt, hasAim)

	if moving {
		a.steer.drive(env.Space, a.body, inter, a.loco.Speed(a.mode), &a.cfg)
	}
}

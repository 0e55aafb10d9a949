package npc

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/milk9111/groundnpc/common"
)

var (
	ErrZeroWaypoint     = errors.New("npc: zero vector is not a waypoint")
	ErrWaypointTooClose = errors.New("npc: waypoint within clearance of agent")
	ErrNoEntity         = errors.New("npc: waypoint entity is none")
)

// Waypoint is one navigation goal: a fixed position or a tracked entity.
// Exactly one of Position and Entity is set.
type Waypoint struct {
	Position mgl64.Vec3
	Entity   EntityID
	// Enemy marks a tracked waypoint inserted by target acquisition.
	Enemy bool
}

// Tracked reports whether the waypoint follows an entity.
func (w Waypoint) Tracked() bool {
	return w.Entity != 0
}

// Queue is an ordered list of waypoints, head first.
type Queue struct {
	items []Waypoint
}

// AddPosition appends a fixed waypoint. The zero vector and points within
// clearance of self are rejected.
func (q *Queue) AddPosition(p, self mgl64.Vec3, clearance float64) error {
	if common.IsZero(p) {
		return ErrZeroWaypoint
	}
	if common.Distance(p, self) < clearance {
		return ErrWaypointTooClose
	}
	q.items = append(q.items, Waypoint{Position: p})
	return nil
}

// AddEntity appends a waypoint tracking id.
func (q *Queue) AddEntity(id EntityID) error {
	if id == 0 {
		return ErrNoEntity
	}
	q.items = append(q.items, Waypoint{Entity: id})
	return nil
}

// PushFrontEnemy inserts an enemy-tracking waypoint at the head.
func (q *Queue) PushFrontEnemy(id EntityID) {
	if id == 0 {
		return
	}
	q.items = append(q.items, Waypoint{})
	copy(q.items[1:], q.items)
	q.items[0] = Waypoint{Entity: id, Enemy: true}
}

func (q *Queue) Front() (Waypoint, bool) {
	if len(q.items) == 0 {
		return Waypoint{}, false
	}
	return q.items[0], true
}

// Advance drops the head and returns it.
func (q *Queue) Advance() (Waypoint, bool) {
	if len(q.items) == 0 {
		return Waypoint{}, false
	}
	w := q.items[0]
	copy(q.items, q.items[1:])
	q.items[len(q.items)-1] = Waypoint{}
	q.items = q.items[:len(q.items)-1]
	return w, true
}

func (q *Queue) Clear() {
	clear(q.items)
	q.items = q.items[:0]
}

// ClearConservingEnemy keeps only an enemy-tracking head, if any.
func (q *Queue) ClearConservingEnemy() {
	if w, ok := q.Front(); ok && w.Enemy {
		clear(q.items[1:])
		q.items = q.items[:1]
		return
	}
	q.Clear()
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Items returns a copy of the queue, head first.
func (q *Queue) Items() []Waypoint {
	return append([]Waypoint(nil), q.items...)
}

// RemoveEntity drops every waypoint tracking id and reports how many went.
func (q *Queue) RemoveEntity(id EntityID) int {
	return q.removeIf(func(w Waypoint) bool { return w.Entity == id })
}

// RemoveEnemy drops enemy-tracking waypoints for id.
func (q *Queue) RemoveEnemy(id EntityID) int {
	return q.removeIf(func(w Waypoint) bool { return w.Enemy && w.Entity == id })
}

// Purge drops tracked waypoints whose entity is gone or farther than
// relevance from self, returning the dropped entries.
func (q *Queue) Purge(space Space, self mgl64.Vec3, relevance float64) []Waypoint {
	var dropped []Waypoint
	q.removeIf(func(w Waypoint) bool {
		if !w.Tracked() {
			return false
		}
		if _, ok := resolveTracked(space, w.Entity, self, relevance); ok {
			return false
		}
		dropped = append(dropped, w)
		return true
	})
	return dropped
}

// Goal resolves the head to a world position. Tracked heads follow the
// entity's current position; a stale tracked head resolves to nothing.
func (q *Queue) Goal(space Space, self mgl64.Vec3, relevance float64) (mgl64.Vec3, bool) {
	w, ok := q.Front()
	if !ok {
		return mgl64.Vec3{}, false
	}
	if !w.Tracked() {
		return w.Position, true
	}
	return resolveTracked(space, w.Entity, self, relevance)
}

func (q *Queue) removeIf(drop func(Waypoint) bool) int {
	kept := q.items[:0]
	for _, w := range q.items {
		if !drop(w) {
			kept = append(kept, w)
		}
	}
	n := len(q.items) - len(kept)
	clear(q.items[len(kept):])
	q.items = kept
	return n
}

func resolveTracked(space Space, id EntityID, self mgl64.Vec3, relevance float64) (mgl64.Vec3, bool) {
	if space == nil {
		return mgl64.Vec3{}, false
	}
	e, ok := space.Entity(id)
	if !ok {
		return mgl64.Vec3{}, false
	}
	if common.Distance(e.Position, self) > relevance {
		return mgl64.Vec3{}, false
	}
	return e.Position, true
}

// surfacePoint casts along gravity through p and returns the first hit, or
// p itself when nothing is below.
func surfacePoint(space Space, p, gravity mgl64.Vec3, above, below float64, skip RayFilter) mgl64.Vec3 {
	down, ok := common.Normalize(gravity)
	if !ok || space == nil {
		return p
	}
	from := p.Sub(down.Mul(above))
	to := p.Add(down.Mul(below))
	if hit, ok := space.CastRay(from, to, skip); ok {
		return hit.Position
	}
	return p
}

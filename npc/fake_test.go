package npc

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

type fakeBox struct {
	id       EntityID
	kind     Kind
	owner    OwnerID
	min, max mgl64.Vec3
	comps    []Component
}

func (b fakeBox) center() mgl64.Vec3 {
	return b.min.Add(b.max).Mul(0.5)
}

func boxAt(id EntityID, kind Kind, owner OwnerID, center mgl64.Vec3, half float64) fakeBox {
	h := mgl64.Vec3{half, half, half}
	return fakeBox{id: id, kind: kind, owner: owner, min: center.Sub(h), max: center.Add(h)}
}

// fakeSpace is a flat plane at y=0 plus axis-aligned boxes.
type fakeSpace struct {
	ground bool
	boxes  []fakeBox
	// castFn replaces the geometry when set.
	castFn func(from, to mgl64.Vec3) (Hit, bool)
	casts  int
}

func newFakeSpace(boxes ...fakeBox) *fakeSpace {
	return &fakeSpace{ground: true, boxes: boxes}
}

func (s *fakeSpace) remove(id EntityID) {
	kept := s.boxes[:0]
	for _, b := range s.boxes {
		if b.id != id {
			kept = append(kept, b)
		}
	}
	s.boxes = kept
}

func (s *fakeSpace) move(id EntityID, center mgl64.Vec3) {
	for i, b := range s.boxes {
		if b.id == id {
			half := b.max.Sub(b.min).Mul(0.5)
			s.boxes[i].min = center.Sub(half)
			s.boxes[i].max = center.Add(half)
		}
	}
}

func (s *fakeSpace) CastRay(from, to mgl64.Vec3, skip RayFilter) (Hit, bool) {
	s.casts++
	if s.castFn != nil {
		h, ok := s.castFn(from, to)
		if !ok || (skip != nil && skip(h)) {
			return Hit{}, false
		}
		return h, true
	}

	type cand struct {
		t float64
		h Hit
	}
	var hits []cand
	d := to.Sub(from)
	if s.ground && from.Y() > 0 && to.Y() <= 0 {
		t := from.Y() / (from.Y() - to.Y())
		hits = append(hits, cand{t, Hit{Position: from.Add(d.Mul(t)), Normal: mgl64.Vec3{0, 1, 0}, Kind: KindTerrain, Component: NoComponent}})
	}
	for _, b := range s.boxes {
		t, n, ok := rayBox(from, to, b.min, b.max)
		if !ok {
			continue
		}
		hits = append(hits, cand{t, Hit{Position: from.Add(d.Mul(t)), Normal: n, Entity: b.id, Kind: b.kind, Component: NoComponent}})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	for _, c := range hits {
		if skip != nil && skip(c.h) {
			continue
		}
		return c.h, true
	}
	return Hit{}, false
}

func rayBox(from, to, min, max mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	d := to.Sub(from)
	tmin, tmax := 0.0, 1.0
	var n mgl64.Vec3
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if from[i] < min[i] || from[i] > max[i] {
				return 0, n, false
			}
			continue
		}
		t1 := (min[i] - from[i]) / d[i]
		t2 := (max[i] - from[i]) / d[i]
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			n = mgl64.Vec3{}
			n[i] = sign
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, n, false
		}
	}
	return tmin, n, true
}

func (s *fakeSpace) Entity(id EntityID) (Entity, bool) {
	for _, b := range s.boxes {
		if b.id == id {
			c := b.center()
			return Entity{ID: b.id, Kind: b.kind, Owner: b.owner, Position: c, Center: c}, true
		}
	}
	return Entity{}, false
}

func (s *fakeSpace) NearbyEntities(center mgl64.Vec3, radius float64, match func(Entity) bool) []Entity {
	var out []Entity
	for _, b := range s.boxes {
		e, _ := s.Entity(b.id)
		if e.Center.Sub(center).Len() > radius {
			continue
		}
		if match != nil && !match(e) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Center.Sub(center).Len() < out[j].Center.Sub(center).Len()
	})
	return out
}

func (s *fakeSpace) Components(id EntityID) []Component {
	for _, b := range s.boxes {
		if b.id == id {
			return b.comps
		}
	}
	return nil
}

func (s *fakeSpace) Component(id EntityID, c ComponentID) (Component, bool) {
	for _, comp := range s.Components(id) {
		if comp.ID == c {
			return comp, true
		}
	}
	return Component{}, false
}

// fakeBody integrates applied forces when mass is set; otherwise it stays put.
type fakeBody struct {
	id      EntityID
	owner   OwnerID
	pos     mgl64.Vec3
	vel     mgl64.Vec3
	up, fwd mgl64.Vec3
	invalid bool
	panics  bool
	mass    float64

	force  mgl64.Vec3
	pushes int
}

func newFakeBody(id EntityID, owner OwnerID, pos mgl64.Vec3) *fakeBody {
	return &fakeBody{id: id, owner: owner, pos: pos, up: mgl64.Vec3{0, 1, 0}, fwd: mgl64.Vec3{1, 0, 0}}
}

func (b *fakeBody) ID() EntityID   { return b.id }
func (b *fakeBody) Owner() OwnerID { return b.owner }
func (b *fakeBody) Valid() bool    { return !b.invalid }
func (b *fakeBody) Position() mgl64.Vec3 {
	if b.panics {
		panic("body lost its transform")
	}
	return b.pos
}
func (b *fakeBody) Velocity() mgl64.Vec3          { return b.vel }
func (b *fakeBody) Up() mgl64.Vec3                { return b.up }
func (b *fakeBody) Forward() mgl64.Vec3           { return b.fwd }
func (b *fakeBody) Gravity() mgl64.Vec3           { return mgl64.Vec3{0, -9.81, 0} }
func (b *fakeBody) Orient(up, forward mgl64.Vec3) { b.up, b.fwd = up, forward }
func (b *fakeBody) ApplyForce(dir mgl64.Vec3, mag float64) {
	b.force = b.force.Add(dir.Mul(mag))
	b.pushes++
}

func (b *fakeBody) step(dt float64) {
	if b.mass > 0 {
		b.vel = b.vel.Add(b.force.Mul(dt / b.mass)).Mul(0.995)
		b.pos = b.pos.Add(b.vel.Mul(dt))
	}
	b.force = mgl64.Vec3{}
}

type hostileFunc func(a, b OwnerID) bool

func (f hostileFunc) IsHostile(a, b OwnerID) bool { return f(a, b) }

var differentOwners = hostileFunc(func(a, b OwnerID) bool { return a != b })

type fakeDamager struct {
	refuse bool
	got    []Damage
}

func (d *fakeDamager) ApplyDamage(dmg Damage) bool {
	if d.refuse {
		return false
	}
	d.got = append(d.got, dmg)
	return true
}

type recordingAnimator struct {
	modes []Mode
}

func (r *recordingAnimator) SetMovementMode(m Mode) { r.modes = append(r.modes, m) }

func eventsOf(evs []Event, kind EventKind) []Event {
	var out []Event
	for _, e := range evs {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

package ecs

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
)

// Space answers agent queries against a world and its physics. It reads
// the world directly, so snapshots are only good for the current tick.
type Space struct {
	w  *World
	pw *PhysicsWorld
}

var _ npc.Space = (*Space)(nil)

func NewSpace(w *World) *Space {
	return &Space{w: w, pw: w.PhysicsWorld()}
}

type castHit struct {
	hit npc.Hit
	t   float64
}

// CastRay returns the nearest terrain or box hit along from->to that skip
// does not reject.
func (s *Space) CastRay(from, to mgl64.Vec3, skip npc.RayFilter) (npc.Hit, bool) {
	if s == nil || s.pw == nil {
		return npc.Hit{}, false
	}
	var hits []castHit

	if p, t, ok := s.pw.terrain.RayCast(from, to); ok {
		hits = append(hits, castHit{
			hit: npc.Hit{
				Position:  p,
				Normal:    s.pw.terrain.Normal(p.X(), p.Z()),
				Kind:      npc.KindTerrain,
				Component: npc.NoComponent,
			},
			t: t,
		})
	}

	bb := cp.BB{
		L: math.Min(from.X(), to.X()) - 0.01,
		B: math.Min(from.Z(), to.Z()) - 0.01,
		R: math.Max(from.X(), to.X()) + 0.01,
		T: math.Max(from.Z(), to.Z()) + 0.01,
	}
	s.pw.space.BBQuery(bb, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, data interface{}) {
		ref, ok := s.pw.lookup(shape)
		if !ok {
			return
		}
		center, half := ref.box()
		t, normal, ok := rayBox(from, to, center, half)
		if !ok {
			return
		}
		kind := npc.KindObstacle
		if class, ok := Get(s.w, ref.entity, component.ClassComponent.Kind()); ok {
			kind = class.Kind
		}
		c := npc.NoComponent
		if ref.structure != nil {
			c = npc.ComponentID(ref.block)
		}
		hits = append(hits, castHit{
			hit: npc.Hit{
				Position:  from.Add(to.Sub(from).Mul(t)),
				Normal:    normal,
				Entity:    ref.entity.NPC(),
				Kind:      kind,
				Component: c,
			},
			t: t,
		})
	}, nil)

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	for _, h := range hits {
		if skip != nil && skip(h.hit) {
			continue
		}
		return h.hit, true
	}
	return npc.Hit{}, false
}

// rayBox is a slab test of segment from->to against an axis aligned box.
// It returns the entry fraction and the face normal.
func rayBox(from, to, center, half mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	d := to.Sub(from)
	tmin, tmax := 0.0, 1.0
	var normal mgl64.Vec3
	for i := 0; i < 3; i++ {
		lo, hi := center[i]-half[i], center[i]+half[i]
		if math.Abs(d[i]) < 1e-12 {
			if from[i] < lo || from[i] > hi {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		t1, t2 := (lo-from[i])/d[i], (hi-from[i])/d[i]
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			normal = mgl64.Vec3{}
			normal[i] = sign
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, mgl64.Vec3{}, false
		}
	}
	if normal == (mgl64.Vec3{}) {
		// from starts inside the box
		normal = from.Sub(center)
		if n := normal.Len(); n > 0 {
			normal = normal.Mul(1 / n)
		}
	}
	return tmin, normal, true
}

// Entity snapshots a live entity. Entities marked for removal, bodies that
// lost their physics and structures without blocks are not live.
func (s *Space) Entity(id npc.EntityID) (npc.Entity, bool) {
	if s == nil {
		return npc.Entity{}, false
	}
	e := FromNPC(id)
	if !s.w.IsAlive(e) || Has(s.w, e, component.MarkedForRemovalComponent.Kind()) {
		return npc.Entity{}, false
	}
	t, ok := Get(s.w, e, component.TransformComponent.Kind())
	if !ok {
		return npc.Entity{}, false
	}
	out := npc.Entity{ID: id, Kind: npc.KindUnknown, Position: t.Position, Center: t.Position}
	if class, ok := Get(s.w, e, component.ClassComponent.Kind()); ok {
		out.Kind = class.Kind
	}
	if owner, ok := Get(s.w, e, component.OwnerComponent.Kind()); ok {
		out.Owner = owner.ID
	}

	if st, ok := Get(s.w, e, component.StructureComponent.Kind()); ok {
		var sum mgl64.Vec3
		n := 0
		for _, b := range st.Blocks {
			if b.Alive() {
				sum = sum.Add(b.Center)
				n++
			}
		}
		if n == 0 {
			return npc.Entity{}, false
		}
		out.Center = sum.Mul(1 / float64(n))
		return out, true
	}

	body, ok := Get(s.w, e, component.PhysicsBodyComponent.Kind())
	if !ok || body.Body == nil || !s.pw.Registered(body.Shape) {
		return npc.Entity{}, false
	}
	if !body.Static {
		v := body.Body.Velocity()
		out.Velocity = mgl64.Vec3{v.X, body.VelY, v.Y}
	}
	return out, true
}

// NearbyEntities lists live entities within radius of center, nearest
// first. Structures count once however many blocks are in range.
func (s *Space) NearbyEntities(center mgl64.Vec3, radius float64, match func(npc.Entity) bool) []npc.Entity {
	if s == nil || s.pw == nil || radius <= 0 {
		return nil
	}
	seen := make(map[Entity]bool)
	var out []npc.Entity
	bb := cp.BB{
		L: center.X() - radius,
		B: center.Z() - radius,
		R: center.X() + radius,
		T: center.Z() + radius,
	}
	s.pw.space.BBQuery(bb, cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, data interface{}) {
		ref, ok := s.pw.lookup(shape)
		if !ok || seen[ref.entity] {
			return
		}
		seen[ref.entity] = true
		ent, ok := s.Entity(ref.entity.NPC())
		if !ok || ent.Center.Sub(center).Len() > radius {
			return
		}
		if match != nil && !match(ent) {
			return
		}
		out = append(out, ent)
	}, nil)

	sort.SliceStable(out, func(i, j int) bool {
		di := out[i].Center.Sub(center).LenSqr()
		dj := out[j].Center.Sub(center).LenSqr()
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Components lists the live blocks of a structure.
func (s *Space) Components(id npc.EntityID) []npc.Component {
	st, ok := s.structure(id)
	if !ok {
		return nil
	}
	var out []npc.Component
	for i, b := range st.Blocks {
		if b.Alive() {
			out = append(out, npc.Component{ID: npc.ComponentID(i), Position: b.Center})
		}
	}
	return out
}

func (s *Space) Component(id npc.EntityID, c npc.ComponentID) (npc.Component, bool) {
	st, ok := s.structure(id)
	if !ok || c < 0 || int(c) >= len(st.Blocks) || !st.Blocks[c].Alive() {
		return npc.Component{}, false
	}
	return npc.Component{ID: c, Position: st.Blocks[c].Center}, true
}

func (s *Space) structure(id npc.EntityID) (*component.Structure, bool) {
	if s == nil {
		return nil, false
	}
	e := FromNPC(id)
	if Has(s.w, e, component.MarkedForRemovalComponent.Kind()) {
		return nil, false
	}
	return Get(s.w, e, component.StructureComponent.Kind())
}

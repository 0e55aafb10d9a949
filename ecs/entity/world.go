package entity

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/prefabs"
)

const defaultDamping = 0.8

// NewPhysics builds the terrain described by spec and attaches a physics
// world over it.
func NewPhysics(w *ecs.World, spec prefabs.ScenarioSpec) *ecs.PhysicsWorld {
	t := spec.Terrain
	hills := make([]ecs.Hill, 0, len(t.Hills))
	for _, h := range t.Hills {
		hills = append(hills, ecs.Hill{X: h.X, Z: h.Z, Height: h.Height, Radius: h.Radius})
	}
	plateaus := make([]ecs.Plateau, 0, len(t.Plateaus))
	for _, p := range t.Plateaus {
		plateaus = append(plateaus, ecs.Plateau{
			MinX:   p.Min.Vec3().X(),
			MinZ:   p.Min.Vec3().Z(),
			MaxX:   p.Max.Vec3().X(),
			MaxZ:   p.Max.Vec3().Z(),
			Height: p.Height,
			Ramp:   p.Ramp,
		})
	}
	damping := spec.Damping
	if damping <= 0 {
		damping = defaultDamping
	}
	pw := ecs.NewPhysicsWorld(ecs.NewTerrain(t.Width, t.Depth, t.Cell, t.Base, hills, plateaus), damping)
	w.SetPhysicsWorld(pw)
	return pw
}

// onGround places a box of half extents half on the terrain at p's x/z.
func onGround(w *ecs.World, p mgl64.Vec3, half mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{p.X(), w.PhysicsWorld().Terrain().Height(p.X(), p.Z()) + half.Y(), p.Z()}
}

// surface lifts p onto the terrain.
func surface(w *ecs.World, p mgl64.Vec3) mgl64.Vec3 {
	return onGround(w, p, mgl64.Vec3{})
}

// halfOf returns half of size, using def for missing components.
func halfOf(size prefabs.Vec3Spec, def mgl64.Vec3) mgl64.Vec3 {
	v := size.Vec3()
	for i := 0; i < 3; i++ {
		if v[i] <= 0 {
			v[i] = def[i]
		}
	}
	return v.Mul(0.5)
}

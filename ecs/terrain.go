package ecs

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/common"
)

// Hill is a gaussian bump added to the terrain base height.
type Hill struct {
	X, Z   float64
	Height float64
	Radius float64
}

// Plateau is a flat-topped square area raised to Height with sloped
// edges of width Ramp.
type Plateau struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
	Height     float64
	Ramp       float64
}

// Terrain is a sampled heightfield over [0, Width] x [0, Depth].
type Terrain struct {
	Width, Depth float64
	Cell         float64
	cols, rows   int
	heights      []float64
}

// NewTerrain samples base plus hills and plateaus on a grid of cell size.
func NewTerrain(width, depth, cell, base float64, hills []Hill, plateaus []Plateau) *Terrain {
	if cell <= 0 {
		cell = 1
	}
	t := &Terrain{
		Width: width,
		Depth: depth,
		Cell:  cell,
		cols:  int(math.Ceil(width/cell)) + 1,
		rows:  int(math.Ceil(depth/cell)) + 1,
	}
	t.heights = make([]float64, t.cols*t.rows)
	for r := 0; r < t.rows; r++ {
		for c := 0; c < t.cols; c++ {
			x, z := float64(c)*cell, float64(r)*cell
			h := base
			for _, hill := range hills {
				if hill.Radius <= 0 {
					continue
				}
				dx, dz := x-hill.X, z-hill.Z
				h += hill.Height * math.Exp(-(dx*dx+dz*dz)/(2*hill.Radius*hill.Radius))
			}
			for _, p := range plateaus {
				h = math.Max(h, plateauHeight(p, x, z, base))
			}
			t.heights[r*t.cols+c] = h
		}
	}
	return t
}

func plateauHeight(p Plateau, x, z, base float64) float64 {
	dx := math.Max(math.Max(p.MinX-x, x-p.MaxX), 0)
	dz := math.Max(math.Max(p.MinZ-z, z-p.MaxZ), 0)
	d := math.Hypot(dx, dz)
	if d == 0 {
		return p.Height
	}
	if p.Ramp <= 0 || d >= p.Ramp {
		return base
	}
	return common.Lerp(p.Height, base, d/p.Ramp)
}

func (t *Terrain) at(c, r int) float64 {
	c = int(common.Clamp(float64(c), 0, float64(t.cols-1)))
	r = int(common.Clamp(float64(r), 0, float64(t.rows-1)))
	return t.heights[r*t.cols+c]
}

// Height returns the bilinear terrain height at (x, z). Outside the grid
// the border heights extend.
func (t *Terrain) Height(x, z float64) float64 {
	if t == nil || len(t.heights) == 0 {
		return 0
	}
	fx := common.Clamp(x/t.Cell, 0, float64(t.cols-1))
	fz := common.Clamp(z/t.Cell, 0, float64(t.rows-1))
	c, r := int(math.Floor(fx)), int(math.Floor(fz))
	tx, tz := fx-float64(c), fz-float64(r)
	h0 := common.Lerp(t.at(c, r), t.at(c+1, r), tx)
	h1 := common.Lerp(t.at(c, r+1), t.at(c+1, r+1), tx)
	return common.Lerp(h0, h1, tz)
}

// Normal estimates the surface normal by central differences.
func (t *Terrain) Normal(x, z float64) mgl64.Vec3 {
	if t == nil {
		return common.Up3
	}
	e := t.Cell * 0.5
	dx := t.Height(x+e, z) - t.Height(x-e, z)
	dz := t.Height(x, z+e) - t.Height(x, z-e)
	n, ok := common.Normalize(mgl64.Vec3{-dx, 2 * e, -dz})
	if !ok {
		return common.Up3
	}
	return n
}

// RayCast marches from `from` to `to` and returns the first point below
// the surface, refined by bisection.
func (t *Terrain) RayCast(from, to mgl64.Vec3) (mgl64.Vec3, float64, bool) {
	if t == nil {
		return mgl64.Vec3{}, 0, false
	}
	length := from.Sub(to).Len()
	if length == 0 {
		return mgl64.Vec3{}, 0, false
	}
	below := func(p mgl64.Vec3) bool { return p.Y() <= t.Height(p.X(), p.Z()) }
	if below(from) {
		return from, 0, true
	}

	step := t.Cell * 0.25
	n := int(math.Ceil(length / step))
	prev := 0.0
	for i := 1; i <= n; i++ {
		f := math.Min(float64(i)*step/length, 1)
		if !below(common.LerpVec(from, to, f)) {
			prev = f
			continue
		}
		lo, hi := prev, f
		for j := 0; j < 16; j++ {
			mid := (lo + hi) / 2
			if below(common.LerpVec(from, to, mid)) {
				hi = mid
			} else {
				lo = mid
			}
		}
		return common.LerpVec(from, to, hi), hi, true
	}
	return mgl64.Vec3{}, 0, false
}

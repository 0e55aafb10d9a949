package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/groundnpc/common"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/entity"
	"github.com/milk9111/groundnpc/ecs/system"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

// terrainPixels is the number of shading pixels per world unit.
const terrainPixels = 4

var sunDir = mgl64.Vec3{-0.5, 1, -0.5}.Normalize()

// Level is one loaded scenario: its world, agents and system pipeline plus
// a pre-rendered shading of the terrain.
type Level struct {
	Name     string
	World    *ecs.World
	Agents   *npc.Collection
	Pipeline *system.Pipeline
	Scenario *entity.Scenario

	terrainImg *ebiten.Image
}

// LoadLevel builds the named scenario with the tuning from npc.yaml.
func LoadLevel(name string, logger *log.Logger) (*Level, error) {
	cfg, err := prefabs.LoadNPCConfig(prefabs.NPCConfigFile)
	if err != nil {
		return nil, err
	}

	w := ecs.NewWorld()
	agents := npc.NewCollection(cfg, logger)
	sc, err := entity.LoadScenario(w, agents, name)
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", name, err)
	}

	lvl := &Level{
		Name:     sc.Name,
		World:    w,
		Agents:   agents,
		Pipeline: system.AddPipeline(w, agents, prefabs.LoadScript),
		Scenario: sc,
	}
	if terrain := w.PhysicsWorld().Terrain(); terrain != nil {
		lvl.terrainImg = ebiten.NewImageFromImage(shadeTerrain(terrain))
	}
	return lvl, nil
}

// Bounds returns the ground extent in world units.
func (l *Level) Bounds() (width, depth float64) {
	if l == nil || l.World.PhysicsWorld() == nil || l.World.PhysicsWorld().Terrain() == nil {
		return 0, 0
	}
	t := l.World.PhysicsWorld().Terrain()
	return t.Width, t.Depth
}

func (l *Level) Update() {
	if l == nil {
		return
	}
	l.World.Update()
}

func (l *Level) Draw(screen *ebiten.Image, view ecs.View) {
	if l == nil {
		return
	}
	if l.terrainImg != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(view.Scale/terrainPixels, view.Scale/terrainPixels)
		op.GeoM.Translate(-view.OffsetX*view.Scale, -view.OffsetY*view.Scale)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(l.terrainImg, op)
	}
	l.World.Draw(screen, view)
}

// shadeTerrain colours the heightfield by height and lights it from the
// north west so slopes read in a top-down view.
func shadeTerrain(t *ecs.Terrain) *image.RGBA {
	w := int(math.Ceil(t.Width * terrainPixels))
	h := int(math.Ceil(t.Depth * terrainPixels))
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	lo, hi := math.Inf(1), math.Inf(-1)
	for z := 0.0; z <= t.Depth; z += t.Cell {
		for x := 0.0; x <= t.Width; x += t.Cell {
			v := t.Height(x, z)
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	span := hi - lo
	if span < 1e-6 {
		span = 1
	}

	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			x := (float64(px) + 0.5) / terrainPixels
			z := (float64(py) + 0.5) / terrainPixels
			elev := (t.Height(x, z) - lo) / span
			lit := common.Clamp(t.Normal(x, z).Dot(sunDir), 0.35, 1)
			img.Set(px, py, color.RGBA{
				R: uint8(common.Lerp(70, 150, elev) * lit),
				G: uint8(common.Lerp(110, 140, elev) * lit),
				B: uint8(common.Lerp(60, 100, elev) * lit),
				A: 0xff,
			})
		}
	}
	return img
}

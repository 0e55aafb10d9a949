package ecs

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
)

// View maps the world XZ plane onto the screen, top down.
type View struct {
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// Project returns the screen position of p.
func (v View) Project(p mgl64.Vec3) (float32, float32) {
	scale := v.Scale
	if scale <= 0 {
		scale = 1
	}
	return float32((p.X()-v.OffsetX)*scale), float32((p.Z()-v.OffsetY)*scale)
}

// RenderSystem draws ECS entities each frame.
type RenderSystem interface {
	Draw(w *World, screen *ebiten.Image, view View)
}

// Draw calls all render-capable systems in update order.
func (w *World) Draw(screen *ebiten.Image, view View) {
	if w == nil || screen == nil || w.scheduler == nil {
		return
	}
	for _, s := range w.scheduler.Systems() {
		rs, ok := s.(RenderSystem)
		if !ok || rs == nil {
			continue
		}
		rs.Draw(w, screen, view)
	}
}

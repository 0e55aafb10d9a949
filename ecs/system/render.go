package system

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
	"golang.org/x/image/colornames"
)

var ownerPalette = []color.RGBA{
	colornames.Steelblue,
	colornames.Firebrick,
	colornames.Seagreen,
	colornames.Darkorange,
	colornames.Mediumpurple,
}

func ownerColor(w *ecs.World, e ecs.Entity) color.RGBA {
	owner, ok := ecs.Get(w, e, component.OwnerComponent.Kind())
	if !ok || owner.ID == 0 {
		return colornames.Gray
	}
	i := int(owner.ID) % len(ownerPalette)
	if i < 0 {
		i += len(ownerPalette)
	}
	return ownerPalette[i]
}

// RenderSystem draws the world top down. With Debug set it also draws each
// agent's queue, movement target and intermediate target.
type RenderSystem struct {
	agents *npc.Collection
	Debug  bool
}

func NewRenderSystem(agents *npc.Collection) *RenderSystem {
	return &RenderSystem{agents: agents}
}

func (r *RenderSystem) Update(w *ecs.World) {}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image, view ecs.View) {
	if r == nil || w == nil {
		return
	}
	scale := float32(view.Scale)
	if scale <= 0 {
		scale = 1
	}

	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, body *component.PhysicsBody, t *component.Transform) {
		if !body.Static {
			return
		}
		x, y := view.Project(t.Position.Sub(body.Half))
		vector.FillRect(screen, x, y, float32(2*body.Half.X())*scale, float32(2*body.Half.Z())*scale, colornames.Darkslategray, false)
	})

	ecs.ForEach(w, component.StructureComponent.Kind(), func(e ecs.Entity, st *component.Structure) {
		clr := ownerColor(w, e)
		for _, b := range st.Blocks {
			if !b.Alive() {
				continue
			}
			x, y := view.Project(b.Center.Sub(b.Half))
			bw, bh := float32(2*b.Half.X())*scale, float32(2*b.Half.Z())*scale
			vector.FillRect(screen, x, y, bw, bh, clr, false)
			vector.StrokeRect(screen, x, y, bw, bh, 1, colornames.Black, false)
		}
	})

	ecs.ForEach2(w, component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, body *component.PhysicsBody, t *component.Transform) {
		if body.Static {
			return
		}
		cx, cy := view.Project(t.Position)
		radius := float32(body.Half.X()) * scale
		vector.FillCircle(screen, cx, cy, radius, ownerColor(w, e), true)
		fx, fy := view.Project(t.Position.Add(t.Forward.Mul(body.Half.X() * 1.5)))
		vector.StrokeLine(screen, cx, cy, fx, fy, 1, colornames.White, true)
	})

	ecs.ForEach(w, component.TracerComponent.Kind(), func(e ecs.Entity, tr *component.Tracer) {
		clr := colornames.Lightgray
		if tr.Damaged {
			clr = colornames.Gold
		}
		x0, y0 := view.Project(tr.From)
		x1, y1 := view.Project(tr.To)
		vector.StrokeLine(screen, x0, y0, x1, y1, 1, clr, true)
	})

	if r.Debug && r.agents != nil {
		r.drawAgentDebug(screen, view)
	}
}

func (r *RenderSystem) drawAgentDebug(screen *ebiten.Image, view ecs.View) {
	for _, a := range r.agents.Agents() {
		if !a.Valid() {
			continue
		}
		pos := a.Body().Position()
		px, py := view.Project(pos)

		prevX, prevY := px, py
		for _, wp := range a.Waypoints() {
			if wp.Tracked() {
				continue
			}
			x, y := view.Project(wp.Position)
			vector.StrokeLine(screen, prevX, prevY, x, y, 1, colornames.Dodgerblue, false)
			prevX, prevY = x, y
		}

		if target, ok := a.MovementTarget(); ok {
			x, y := view.Project(target)
			vector.StrokeCircle(screen, x, y, 3, 1, colornames.Lime, true)
		}
		if mid, ok := a.IntermediateTarget(); ok {
			x, y := view.Project(mid)
			vector.StrokeLine(screen, px, py, x, y, 1, colornames.Orange, false)
		}
		if a.Flying() {
			vector.StrokeCircle(screen, px, py, 6, 1, colornames.Red, true)
		}
	}
}

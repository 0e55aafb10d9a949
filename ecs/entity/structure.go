package entity

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/groundnpc/common"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/ecs/component"
	"github.com/milk9111/groundnpc/npc"
	"github.com/milk9111/groundnpc/prefabs"
)

const defaultBlockIntegrity = 50

// NewStructure adds a composite of destructible blocks. Block offsets are
// measured from the ground below the structure position.
func NewStructure(w *ecs.World, spec prefabs.StructureSpec) (ecs.Entity, error) {
	pw := w.PhysicsWorld()
	if pw == nil {
		return 0, fmt.Errorf("structure %s: no physics world", spec.Name)
	}
	if len(spec.Blocks) == 0 {
		return 0, fmt.Errorf("structure %s: no blocks", spec.Name)
	}
	base := surface(w, spec.Position.Vec3())

	st := &component.Structure{Indestructible: spec.Indestructible}
	for _, b := range spec.Blocks {
		integrity := b.Integrity
		if integrity <= 0 {
			integrity = defaultBlockIntegrity
		}
		st.Blocks = append(st.Blocks, component.Block{
			Center:    base.Add(b.Offset.Vec3()),
			Half:      halfOf(b.Size, mgl64.Vec3{2, 2, 2}),
			Integrity: integrity,
		})
	}

	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		Position: base,
		Up:       common.Up3,
		Forward:  mgl64.Vec3{0, 0, 1},
	}); err != nil {
		return 0, fmt.Errorf("structure %s: add transform: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.ClassComponent.Kind(), &component.Class{Kind: npc.KindStructure, Name: spec.Name}); err != nil {
		return 0, fmt.Errorf("structure %s: add class: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.OwnerComponent.Kind(), &component.Owner{ID: npc.OwnerID(spec.Owner)}); err != nil {
		return 0, fmt.Errorf("structure %s: add owner: %w", spec.Name, err)
	}
	if err := ecs.Add(w, e, component.StructureComponent.Kind(), st); err != nil {
		return 0, fmt.Errorf("structure %s: add structure: %w", spec.Name, err)
	}
	for i := range st.Blocks {
		pw.AddBlock(e, st, i)
	}
	return e, nil
}

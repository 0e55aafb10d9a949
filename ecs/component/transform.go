package component

import "github.com/go-gl/mathgl/mgl64"

// Transform places an entity in the 3D world, y up. Up and Forward are
// kept orthonormal by whoever writes them.
type Transform struct {
	Position mgl64.Vec3
	Up       mgl64.Vec3
	Forward  mgl64.Vec3
}

var TransformComponent = NewComponent[Transform]()

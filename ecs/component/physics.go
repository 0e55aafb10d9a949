package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

// PhysicsBody stores Chipmunk2D runtime data for the horizontal plane plus
// the vertical state integrated by the sandbox. The cp plane maps world x
// to cp X and world z to cp Y.
type PhysicsBody struct {
	Body  *cp.Body
	Shape *cp.Shape

	// Half holds the half extents of the box collider.
	Half     mgl64.Vec3
	Mass     float64
	Friction float64
	Static   bool

	VelY     float64
	ForceY   float64
	Airborne bool
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()

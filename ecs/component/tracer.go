package component

import "github.com/go-gl/mathgl/mgl64"

// Tracer is a short-lived shot line.
type Tracer struct {
	From    mgl64.Vec3
	To      mgl64.Vec3
	Damaged bool
}

var TracerComponent = NewComponent[Tracer]()

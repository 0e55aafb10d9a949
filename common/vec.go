package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const vecEpsilon = 1e-9

var (
	Zero3 = mgl64.Vec3{}
	Up3   = mgl64.Vec3{0, 1, 0}
)

// IsZero reports whether v is the zero vector.
func IsZero(v mgl64.Vec3) bool {
	return v.LenSqr() <= vecEpsilon*vecEpsilon
}

// Normalize returns v scaled to unit length, or false when v has no direction.
func Normalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l <= vecEpsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / l), true
}

// AngleBetween returns the unsigned angle between a and b in radians. A zero
// vector yields zero.
func AngleBetween(a, b mgl64.Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la <= vecEpsilon || lb <= vecEpsilon {
		return 0
	}
	return math.Acos(Clamp(a.Dot(b)/(la*lb), -1, 1))
}

// AngleBetweenDeg is AngleBetween in degrees.
func AngleBetweenDeg(a, b mgl64.Vec3) float64 {
	return mgl64.RadToDeg(AngleBetween(a, b))
}

// ProjectOnPlane removes the component of v along the plane normal n.
func ProjectOnPlane(v, n mgl64.Vec3) mgl64.Vec3 {
	sq := n.LenSqr()
	if sq <= vecEpsilon {
		return v
	}
	return v.Sub(n.Mul(v.Dot(n) / sq))
}

// RotateAround rotates v by angle radians around axis (right handed).
func RotateAround(v, axis mgl64.Vec3, angle float64) mgl64.Vec3 {
	n, ok := Normalize(axis)
	if !ok || angle == 0 {
		return v
	}
	return mgl64.QuatRotate(angle, n).Rotate(v)
}

// LerpVec linearly interpolates between a and b.
func LerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Distance returns |a-b|.
func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

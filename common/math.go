package common

import "math"

const (
	// TPS is the fixed simulation rate every tick-based interval is expressed in.
	TPS = 60

	// Gravity is the downward acceleration used by the sandbox, in units/s².
	Gravity = 9.81
)

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ApproxZero reports whether v is within eps of zero.
func ApproxZero(v, eps float64) bool {
	return math.Abs(v) <= eps
}

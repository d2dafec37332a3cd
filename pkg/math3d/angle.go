package math3d

import "math"

// Euler holds camera orientation angles in radians. Pitch tilts the view
// up and down, Yaw turns it around the up axis and Roll banks it.
type Euler struct {
	Pitch float64 `yaml:"pitch"`
	Yaw   float64 `yaml:"yaw"`
	Roll  float64 `yaml:"roll"`
}

// Add returns the component-wise sum of two angle sets.
func (e Euler) Add(d Euler) Euler {
	return Euler{e.Pitch + d.Pitch, e.Yaw + d.Yaw, e.Roll + d.Roll}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// WrapAngle maps a into [0, 2π).
func WrapAngle(a float64) float64 {
	const full = 2 * math.Pi
	a = math.Mod(a, full)
	if a < 0 {
		a += full
	}
	// a tiny negative remainder rounds up to exactly full
	if a >= full {
		a = 0
	}
	return a
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

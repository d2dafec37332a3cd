package input

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/emcee/pkg/math3d"
)

// restSpeed is the speed below which a settled Mover reports no motion.
const restSpeed = 1e-3

// Mover eases a per-tick velocity toward a target with a critically
// damped spring, so movement ramps up when a key goes down and coasts to
// a stop after it is released.
type Mover struct {
	spring harmonica.Spring
	vel    [3]float64
	accel  [3]float64
}

// NewMover returns a Mover stepped once per tick of the given length.
func NewMover(tick time.Duration) *Mover {
	fps := int(time.Second / max(tick, time.Millisecond))
	return &Mover{spring: harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0)}
}

// Step advances the spring one tick toward target and returns the
// velocity to apply this tick.
func (m *Mover) Step(target math3d.Vec3) math3d.Vec3 {
	t := [3]float64{target.X, target.Y, target.Z}
	for i := range m.vel {
		m.vel[i], m.accel[i] = m.spring.Update(m.vel[i], m.accel[i], t[i])
	}
	return math3d.V3(m.vel[0], m.vel[1], m.vel[2])
}

// Resting reports whether the Mover has settled at zero.
func (m *Mover) Resting() bool {
	for i := range m.vel {
		if math.Abs(m.vel[i]) > restSpeed || math.Abs(m.accel[i]) > restSpeed {
			return false
		}
	}
	return true
}

// Stop zeroes the velocity immediately.
func (m *Mover) Stop() {
	m.vel, m.accel = [3]float64{}, [3]float64{}
}

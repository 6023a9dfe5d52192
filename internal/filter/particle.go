package filter

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Particle is a single pose hypothesis. Theta is in radians and is not
// wrapped into [-pi, pi]: the motion update accumulates rotations, and
// every consumer goes through cos/sin, so wrapping is unnecessary.
type Particle struct {
	X     float64
	Y     float64
	Theta float64
}

// Pose is the filter's point estimate of the robot state.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// Bounds describes the rectangular map limits particles are drawn from.
type Bounds struct {
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

// Validate checks that the bounds describe a non-empty rectangle.
func (b Bounds) Validate() error {
	if b.XMax <= b.XMin {
		return fmt.Errorf("invalid x bounds: [%g, %g]", b.XMin, b.XMax)
	}
	if b.YMax <= b.YMin {
		return fmt.Errorf("invalid y bounds: [%g, %g]", b.YMin, b.YMax)
	}
	return nil
}

// Generate draws n particles uniformly within the map bounds. Each field is
// drawn independently; theta is uniform over (-pi, pi).
func Generate(rng *rand.Rand, n int, bounds Bounds) []Particle {
	particles := make([]Particle, n)
	for i := range particles {
		particles[i] = Particle{
			X:     bounds.XMin + rng.Float64()*(bounds.XMax-bounds.XMin),
			Y:     bounds.YMin + rng.Float64()*(bounds.YMax-bounds.YMin),
			Theta: -math.Pi + rng.Float64()*2*math.Pi,
		}
	}
	return particles
}

// MeanPose computes the mean pose of a particle set. X and Y are arithmetic
// means. Headings cannot be averaged directly because of the wraparound at
// +/-pi, so theta is the circular mean: the angle of the averaged unit
// vectors. With perfectly opposed headings the resultant vector is zero and
// atan2(0, 0) = 0 is returned; that degenerate answer is accepted as is.
func MeanPose(particles []Particle) Pose {
	n := len(particles)
	xs := make([]float64, n)
	ys := make([]float64, n)
	vxs := make([]float64, n)
	vys := make([]float64, n)
	for i, p := range particles {
		xs[i] = p.X
		ys[i] = p.Y
		vxs[i] = math.Cos(p.Theta)
		vys[i] = math.Sin(p.Theta)
	}
	return Pose{
		X:     stat.Mean(xs, nil),
		Y:     stat.Mean(ys, nil),
		Theta: math.Atan2(stat.Mean(vys, nil), stat.Mean(vxs, nil)),
	}
}

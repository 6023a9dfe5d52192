package filter

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Odometry is one incremental motion reading, decomposed as
// rotate-translate-rotate.
type Odometry struct {
	Rot1  float64
	Trans float64
	Rot2  float64
}

// MotionNoise holds the four odometry noise coefficients
// [alpha1, alpha2, alpha3, alpha4].
type MotionNoise [4]float64

// DefaultMotionNoise matches the reference scenario tuning.
var DefaultMotionNoise = MotionNoise{0.1, 0.1, 0.05, 0.05}

// MotionModel samples new particle positions from old positions, an odometry
// reading and the motion noise.
type MotionModel struct {
	noise MotionNoise
	rng   *rand.Rand
}

// NewMotionModel creates a motion model drawing its noise from rng.
func NewMotionModel(noise MotionNoise, rng *rand.Rand) (*MotionModel, error) {
	if rng == nil {
		return nil, fmt.Errorf("motion model requires a random source")
	}
	for i, a := range noise {
		if a < 0 {
			return nil, fmt.Errorf("noise coefficient alpha%d must be non-negative, got %g", i+1, a)
		}
	}
	return &MotionModel{noise: noise, rng: rng}, nil
}

// Sample returns a new particle set predicted from the odometry reading.
// Noise is drawn independently per particle; the input set is not modified.
func (m *MotionModel) Sample(odom Odometry, particles []Particle) []Particle {
	sigmaRot1 := m.noise[0]*math.Abs(odom.Rot1) + m.noise[1]*odom.Trans
	sigmaTrans := m.noise[2]*odom.Trans + m.noise[3]*(math.Abs(odom.Rot1)+math.Abs(odom.Rot2))
	sigmaRot2 := m.noise[0]*math.Abs(odom.Rot2) + m.noise[1]*odom.Trans

	// A zero sigma collapses Rand to exactly zero, so noiseless odometry
	// propagates exactly.
	rot1Dist := distuv.Normal{Mu: 0, Sigma: sigmaRot1, Src: m.rng}
	transDist := distuv.Normal{Mu: 0, Sigma: sigmaTrans, Src: m.rng}
	rot2Dist := distuv.Normal{Mu: 0, Sigma: sigmaRot2, Src: m.rng}

	next := make([]Particle, len(particles))
	for i, p := range particles {
		noisyRot1 := odom.Rot1 + rot1Dist.Rand()
		noisyTrans := odom.Trans + transDist.Rand()
		noisyRot2 := odom.Rot2 + rot2Dist.Rand()
		next[i] = Particle{
			X: p.X + noisyTrans*math.Cos(p.Theta+noisyRot1),
			Y: p.Y + noisyTrans*math.Sin(p.Theta+noisyRot1),
			// Theta is accumulated without re-wrapping into [-pi, pi].
			Theta: p.Theta + noisyRot1 + noisyRot2,
		}
	}
	return next
}

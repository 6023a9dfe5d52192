package filter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMotionModelValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NewMotionModel(DefaultMotionNoise, nil)
	assert.Error(t, err)

	_, err = NewMotionModel(MotionNoise{-0.1, 0.1, 0.05, 0.05}, rng)
	assert.Error(t, err)

	_, err = NewMotionModel(DefaultMotionNoise, rng)
	assert.NoError(t, err)
}

func TestMotionSampleCardinality(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m, err := NewMotionModel(DefaultMotionNoise, rng)
	require.NoError(t, err)

	prior := Generate(rng, 50, testBounds)
	next := m.Sample(Odometry{Rot1: 0.2, Trans: 1, Rot2: -0.1}, prior)
	assert.Len(t, next, len(prior))
}

func TestMotionSampleNoiseless(t *testing.T) {
	// With all noise coefficients zero the update is the exact odometry
	// propagation.
	rng := rand.New(rand.NewSource(1))
	m, err := NewMotionModel(MotionNoise{}, rng)
	require.NoError(t, err)

	prior := []Particle{{X: 1, Y: 2, Theta: math.Pi / 2}}
	next := m.Sample(Odometry{Rot1: 0, Trans: 1, Rot2: 0}, prior)

	require.Len(t, next, 1)
	assert.InDelta(t, 1.0, next[0].X, 1e-12)
	assert.InDelta(t, 3.0, next[0].Y, 1e-12)
	assert.InDelta(t, math.Pi/2, next[0].Theta, 1e-12)
}

func TestMotionSampleThetaNotWrapped(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m, err := NewMotionModel(MotionNoise{}, rng)
	require.NoError(t, err)

	prior := []Particle{{Theta: 3.0}}
	next := m.Sample(Odometry{Rot1: 1.5, Trans: 0, Rot2: 1.5}, prior)

	// 3.0 + 1.5 + 1.5 exceeds pi and must stay un-normalized.
	assert.InDelta(t, 6.0, next[0].Theta, 1e-12)
}

func TestMotionSampleDoesNotMutateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m, err := NewMotionModel(DefaultMotionNoise, rng)
	require.NoError(t, err)

	prior := []Particle{{X: 1, Y: 2, Theta: 0.3}}
	saved := prior[0]
	m.Sample(Odometry{Rot1: 0.2, Trans: 1, Rot2: 0.1}, prior)
	assert.Equal(t, saved, prior[0])
}

func TestMotionSampleDeterministic(t *testing.T) {
	odom := Odometry{Rot1: 0.1, Trans: 0.5, Rot2: -0.2}
	prior := Generate(rand.New(rand.NewSource(3)), 50, testBounds)

	mA, err := NewMotionModel(DefaultMotionNoise, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	mB, err := NewMotionModel(DefaultMotionNoise, rand.New(rand.NewSource(9)))
	require.NoError(t, err)

	assert.Equal(t, mA.Sample(odom, prior), mB.Sample(odom, prior))
}

func TestMotionSampleSpreadsParticles(t *testing.T) {
	// Independent per-particle noise must not move every particle
	// identically.
	rng := rand.New(rand.NewSource(5))
	m, err := NewMotionModel(DefaultMotionNoise, rng)
	require.NoError(t, err)

	prior := make([]Particle, 50)
	next := m.Sample(Odometry{Rot1: 0.1, Trans: 1, Rot2: 0.1}, prior)

	distinct := make(map[Particle]struct{}, len(next))
	for _, p := range next {
		distinct[p] = struct{}{}
	}
	assert.Greater(t, len(distinct), 1)
}

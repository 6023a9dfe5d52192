package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testParams(seed int64) Params {
	return Params{
		Particles:         50,
		Bounds:            testBounds,
		MotionNoise:       DefaultMotionNoise,
		SigmaRange:        0.2,
		CollapseThreshold: DefaultCollapseThreshold,
		Workers:           1,
		Seed:              seed,
	}
}

type recordingSink struct {
	steps  []int
	frames [][]Particle
	poses  []Pose
}

func (r *recordingSink) Frame(step int, particles []Particle, estimate Pose) error {
	cloud := make([]Particle, len(particles))
	copy(cloud, particles)
	r.steps = append(r.steps, step)
	r.frames = append(r.frames, cloud)
	r.poses = append(r.poses, estimate)
	return nil
}

func TestNewFilterValidation(t *testing.T) {
	_, err := New(testParams(1), nil, zap.NewNop())
	assert.Error(t, err)

	params := testParams(1)
	params.Particles = 0
	_, err = New(params, testLandmarks, zap.NewNop())
	assert.Error(t, err)

	f, err := New(testParams(1), testLandmarks, nil)
	require.NoError(t, err)
	assert.Len(t, f.Particles(), 50)
}

func TestFilterSinkSeesPrePredictionState(t *testing.T) {
	f, err := New(testParams(123), testLandmarks, zap.NewNop())
	require.NoError(t, err)

	initial := make([]Particle, len(f.Particles()))
	copy(initial, f.Particles())

	sink := &recordingSink{}
	record := Record{
		Odometry:     Odometry{Trans: 1},
		Observations: []Observation{{LandmarkID: 1, Range: 4}},
	}
	require.NoError(t, f.Step(record, sink))

	require.Len(t, sink.frames, 1)
	assert.Equal(t, 0, sink.steps[0])
	assert.Equal(t, initial, sink.frames[0])
}

func TestFilterCardinalityInvariant(t *testing.T) {
	f, err := New(testParams(123), testLandmarks, zap.NewNop())
	require.NoError(t, err)

	records := []Record{
		{Odometry: Odometry{Trans: 1}, Observations: []Observation{{LandmarkID: 1, Range: 4}}},
		{Odometry: Odometry{Rot1: 0.5, Trans: 0.5}},
		{Odometry: Odometry{Trans: 2}, Observations: []Observation{{LandmarkID: 2, Range: 3}}},
	}
	for _, record := range records {
		require.NoError(t, f.Step(record, nil))
		assert.Len(t, f.Particles(), 50)
	}
}

func TestFilterDeterministicRun(t *testing.T) {
	records := []Record{
		{Odometry: Odometry{Rot1: 0.1, Trans: 1}, Observations: []Observation{{LandmarkID: 1, Range: 4}}},
		{Odometry: Odometry{Trans: 0.5, Rot2: -0.2}},
		{Odometry: Odometry{Trans: 1}, Observations: []Observation{{LandmarkID: 2, Range: 6}}},
	}

	run := func() (*recordingSink, Pose) {
		f, err := New(testParams(42), testLandmarks, zap.NewNop())
		require.NoError(t, err)
		sink := &recordingSink{}
		pose, err := f.Run(records, sink)
		require.NoError(t, err)
		return sink, pose
	}

	sinkA, poseA := run()
	sinkB, poseB := run()
	assert.Equal(t, poseA, poseB)
	assert.Equal(t, sinkA.frames, sinkB.frames)
	assert.Equal(t, sinkA.poses, sinkB.poses)
}

func TestFilterUnknownLandmarkAborts(t *testing.T) {
	f, err := New(testParams(1), testLandmarks, zap.NewNop())
	require.NoError(t, err)

	record := Record{Observations: []Observation{{LandmarkID: 42, Range: 2}}}
	err = f.Step(record, nil)
	assert.ErrorContains(t, err, "unknown landmark id 42")
}

func TestFilterCollapseObservable(t *testing.T) {
	f, err := New(testParams(1), testLandmarks, zap.NewNop())
	require.NoError(t, err)

	// A range no particle inside the map can explain drives every weight to
	// effectively zero.
	record := Record{Observations: []Observation{{LandmarkID: 1, Range: 500}}}
	require.NoError(t, f.Step(record, nil))
	assert.Equal(t, 1, f.Collapses())
	assert.Len(t, f.Particles(), 50)
}

func TestFilterConvergesTowardObservedRange(t *testing.T) {
	// One landmark at (5,5) and a single range-5 observation: averaged over
	// trials, the updated mean pose must sit closer to the range-5 ring than
	// the uniform prior's mean does. The process is stochastic, so the
	// comparison is statistical, not exact.
	landmarks := LandmarkMap{1: {X: 5, Y: 5}}
	record := Record{
		Odometry:     Odometry{Trans: 1},
		Observations: []Observation{{LandmarkID: 1, Range: 5.0}},
	}

	ringError := func(p Pose) float64 {
		return math.Abs(math.Hypot(p.X-5, p.Y-5) - 5.0)
	}

	const trials = 30
	var beforeSum, afterSum float64
	for seed := int64(0); seed < trials; seed++ {
		f, err := New(testParams(seed), landmarks, zap.NewNop())
		require.NoError(t, err)

		beforeSum += ringError(f.Estimate())
		require.NoError(t, f.Step(record, nil))
		afterSum += ringError(f.Estimate())
	}

	assert.Less(t, afterSum/trials, beforeSum/trials)
}
